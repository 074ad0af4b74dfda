package model

// OptionKey is one of the four answer choices of a question.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// ValidOptionKey reports whether k names one of the four choices.
func ValidOptionKey(k OptionKey) bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is a single bank entry. Immutable once created; the correct
// answer and explanation are never sent to a student mid-session.
type Question struct {
	ID            int       `json:"id"`
	QuestionText  string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer OptionKey `json:"correct_answer"`
	Domain        string    `json:"domain"`
	Explanation   string    `json:"explanation"`
}

// QuestionForStudent is the student-safe projection used while a session
// is in progress.
type QuestionForStudent struct {
	ID           int    `json:"id"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
	Domain       string `json:"domain"`
}

// ForStudent strips the correct answer and explanation.
func (q Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
		Domain:       q.Domain,
	}
}

// CreateQuestionRequest is the payload for loading a question into the bank.
type CreateQuestionRequest struct {
	QuestionText  string `json:"question_text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=500"`
	OptionB       string `json:"option_b" binding:"required,max=500"`
	OptionC       string `json:"option_c" binding:"required,max=500"`
	OptionD       string `json:"option_d" binding:"required,max=500"`
	CorrectAnswer string `json:"correct_answer" binding:"required,optionkey"`
	Domain        string `json:"domain" binding:"required,max=100"`
	Explanation   string `json:"explanation" binding:"max=2000"`
}
