package model

import "time"

// TestResult is one persisted, scored attempt. Created exactly once per
// submitted session and never mutated afterwards.
type TestResult struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	TimeTaken      int       `json:"time_taken"`
	CompletedAt    time.Time `json:"completed_at"`
}

// TestAnswer is the per-question detail of a result. UserAnswer is nil when
// the question was left unanswered (always scored incorrect).
type TestAnswer struct {
	ID           int        `json:"id"`
	TestResultID int        `json:"test_result_id"`
	QuestionID   int        `json:"question_id"`
	UserAnswer   *OptionKey `json:"user_answer"`
	IsCorrect    bool       `json:"is_correct"`
}

// AnswerReview joins a TestAnswer with its question for the review view.
type AnswerReview struct {
	QuestionID    int        `json:"question_id"`
	QuestionText  string     `json:"question_text"`
	OptionA       string     `json:"option_a"`
	OptionB       string     `json:"option_b"`
	OptionC       string     `json:"option_c"`
	OptionD       string     `json:"option_d"`
	CorrectAnswer OptionKey  `json:"correct_answer"`
	Explanation   string     `json:"explanation"`
	Domain        string     `json:"domain"`
	UserAnswer    *OptionKey `json:"user_answer"`
	IsCorrect     bool       `json:"is_correct"`
}

// SubmittedAnswer is one (question, chosen option) pair from a client submit.
type SubmittedAnswer struct {
	QuestionID int       `json:"questionId" binding:"required"`
	UserAnswer OptionKey `json:"userAnswer" binding:"required,optionkey"`
}

// SubmitTestRequest is the payload for scoring a finished attempt.
// QuestionIDs is the session's full question sequence; when a legacy client
// omits it, only the answered questions produce detail rows.
type SubmitTestRequest struct {
	UserID       int               `json:"userId" binding:"required"`
	SessionToken string            `json:"sessionToken" binding:"omitempty,uuid"`
	QuestionIDs  []int             `json:"questionIds" binding:"omitempty,dive,min=1"`
	Answers      []SubmittedAnswer `json:"answers" binding:"dive"`
	TimeTaken    int               `json:"timeTaken" binding:"min=0"`
}

// SubmitTestResponse is the summary returned after a successful submit.
type SubmitTestResponse struct {
	TestResultID   int     `json:"testResultId"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	Percentage     string  `json:"percentage"`
	RawPercentage  float64 `json:"-"`
}

// StartTestRequest identifies the test taker: an authenticated user by id,
// or a guest by fullname (get-or-create).
type StartTestRequest struct {
	UserID   int    `json:"userId" binding:"omitempty,min=1"`
	Fullname string `json:"fullname" binding:"omitempty,min=2,max=100"`
}
