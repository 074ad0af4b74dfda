package service

import (
	"fmt"
	"testing"

	"github.com/certprep/certprep-backend/internal/model"
)

func sequentialIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func allCorrectKey(n int) map[int]model.OptionKey {
	correct := make(map[int]model.OptionKey, n)
	for i := 1; i <= n; i++ {
		correct[i] = model.OptionA
	}
	return correct
}

func TestScoreAnswersPassingBoundary(t *testing.T) {
	// Questions 1-70 answered correctly, 71-100 answered incorrectly:
	// exactly at the default passing threshold.
	ids := sequentialIDs(100)
	correct := allCorrectKey(100)
	answers := make(map[int]model.OptionKey, 100)
	for i := 1; i <= 70; i++ {
		answers[i] = model.OptionA
	}
	for i := 71; i <= 100; i++ {
		answers[i] = model.OptionB
	}

	card := ScoreAnswers(ids, answers, correct, 100)

	if card.Score != 70 {
		t.Fatalf("expected score 70, got %d", card.Score)
	}
	if card.TotalQuestions != 100 {
		t.Fatalf("expected total 100, got %d", card.TotalQuestions)
	}
	if card.Percentage != 70.00 {
		t.Fatalf("expected percentage 70.00, got %v", card.Percentage)
	}
	if got := fmt.Sprintf("%.2f", card.Percentage); got != "70.00" {
		t.Fatalf("expected formatted percentage 70.00, got %s", got)
	}
}

func TestScoreAnswersUnansweredAlwaysIncorrect(t *testing.T) {
	ids := sequentialIDs(100)
	correct := allCorrectKey(100)

	// Answer 60 questions correctly, leave 40 blank.
	answers := make(map[int]model.OptionKey, 60)
	for i := 1; i <= 60; i++ {
		answers[i] = model.OptionA
	}

	card := ScoreAnswers(ids, answers, correct, 100)

	if card.Score > 60 {
		t.Fatalf("score %d exceeds answered count", card.Score)
	}
	if len(card.Answers) != 100 {
		t.Fatalf("expected an answer row per question, got %d", len(card.Answers))
	}

	unanswered := 0
	for _, a := range card.Answers {
		if a.UserAnswer == nil {
			unanswered++
			if a.IsCorrect {
				t.Fatalf("unanswered question %d marked correct", a.QuestionID)
			}
		}
	}
	if unanswered != 40 {
		t.Fatalf("expected 40 unanswered rows, got %d", unanswered)
	}
}

func TestScoreAnswersEmptySubmission(t *testing.T) {
	ids := sequentialIDs(100)
	card := ScoreAnswers(ids, nil, allCorrectKey(100), 100)

	if card.Score != 0 {
		t.Fatalf("empty submission must score 0, got %d", card.Score)
	}
	if card.Percentage != 0 {
		t.Fatalf("expected percentage 0, got %v", card.Percentage)
	}
}

func TestScoreAnswersPercentageRounding(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{1, 3, 33.33},
		{2, 3, 66.67},
		{1, 7, 14.29},
		{0, 100, 0},
		{100, 100, 100},
	}

	for _, tc := range tests {
		ids := sequentialIDs(tc.total)
		correct := allCorrectKey(tc.total)
		answers := make(map[int]model.OptionKey, tc.score)
		for i := 1; i <= tc.score; i++ {
			answers[i] = model.OptionA
		}

		card := ScoreAnswers(ids, answers, correct, tc.total)
		if card.Percentage != tc.want {
			t.Errorf("%d/%d: expected %v, got %v", tc.score, tc.total, tc.want, card.Percentage)
		}
	}
}

func TestScoreAnswersBoundsInvariant(t *testing.T) {
	ids := sequentialIDs(50)
	correct := allCorrectKey(50)
	answers := map[int]model.OptionKey{
		1: model.OptionA, 2: model.OptionB, 3: model.OptionA,
	}

	card := ScoreAnswers(ids, answers, correct, 100)

	if card.Score < 0 || card.Score > card.TotalQuestions {
		t.Fatalf("score %d outside [0,%d]", card.Score, card.TotalQuestions)
	}
}

func TestScoreAnswersWrongAnswerStored(t *testing.T) {
	ids := []int{1}
	correct := map[int]model.OptionKey{1: model.OptionC}
	answers := map[int]model.OptionKey{1: model.OptionD}

	card := ScoreAnswers(ids, answers, correct, 100)

	if card.Score != 0 {
		t.Fatalf("wrong answer scored correct")
	}
	if card.Answers[0].UserAnswer == nil || *card.Answers[0].UserAnswer != model.OptionD {
		t.Fatalf("submitted option not preserved: %v", card.Answers[0].UserAnswer)
	}
}
