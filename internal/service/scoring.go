package service

import (
	"math"

	"github.com/certprep/certprep-backend/internal/model"
)

// Scorecard is the deterministic outcome of grading one answer set.
type Scorecard struct {
	Score          int
	TotalQuestions int
	Percentage     float64
	Answers        []model.TestAnswer
}

// ScoreAnswers grades a finished attempt. questionIDs is the session's full
// question sequence; answers maps question id to the submitted option key.
// Questions absent from the map are unanswered and always score incorrect.
// correct maps question id to the bank's correct key.
//
// total is the session's fixed question count: the denominator does not
// shrink when fewer questions were answered or listed.
func ScoreAnswers(questionIDs []int, answers map[int]model.OptionKey, correct map[int]model.OptionKey, total int) Scorecard {
	card := Scorecard{
		TotalQuestions: total,
		Answers:        make([]model.TestAnswer, 0, len(questionIDs)),
	}

	for _, qid := range questionIDs {
		key, answered := answers[qid]
		var userAnswer *model.OptionKey
		isCorrect := false
		if answered {
			k := key
			userAnswer = &k
			isCorrect = correct[qid] == key
		}
		if isCorrect {
			card.Score++
		}
		card.Answers = append(card.Answers, model.TestAnswer{
			QuestionID: qid,
			UserAnswer: userAnswer,
			IsCorrect:  isCorrect,
		})
	}

	card.Percentage = roundPercentage(card.Score, total)
	return card
}

// roundPercentage computes score/total*100 rounded to two decimals.
func roundPercentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*100*100) / 100
}
