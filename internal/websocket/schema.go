package websocket

import (
	"encoding/json"

	"github.com/certprep/certprep-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer    Action = "answer"
	ActionAdvance   Action = "advance"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
	ActionViolation Action = "violation"
	ActionFocus     Action = "focus"
	ActionDialog    Action = "dialog"
)

// RequestPayload is the single client message shape. Action selects the
// operation; the other fields are read only by the actions that need them.
type RequestPayload struct {
	Action Action `json:"action"`

	// Answer for ActionAnswer: "A".."D".
	Answer string `json:"ans,omitempty"`

	// Kind for ActionViolation: "minimize" or "blur".
	Kind string `json:"kind,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSession  Event = "session"
	EventState    Event = "state"
	EventGraded   Event = "graded"
	EventWarning  Event = "warning"
	EventEscalate Event = "escalated"
	EventPong     Event = "pong"

	// EventViolation is emitted on the instructor monitor stream only.
	EventViolation Event = "violation"
)

// SessionResponse is the first server message of a live session: the full
// question sequence (answers stripped) and the clock snapshot.
type SessionResponse struct {
	Event          Event                      `json:"event"`
	UserID         int                        `json:"userId"`
	Fullname       string                     `json:"fullname"`
	SessionToken   string                     `json:"sessionToken"`
	Questions      []model.QuestionForStudent `json:"questions"`
	QuestionTime   int                        `json:"questionTimeSec"`
	ExamDuration   int                        `json:"examDurationSec"`
	TotalQuestions int                        `json:"totalQuestions"`
}

// ViolationBroadcast wraps a queued violation payload for the instructor
// monitor stream.
type ViolationBroadcast struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StateResponse carries the session snapshot after every accepted action.
type StateResponse struct {
	Event             Event  `json:"event"`
	QuestionIndex     int    `json:"questionIndex"`
	TotalQuestions    int    `json:"totalQuestions"`
	Answered          int    `json:"answered"`
	QuestionRemaining int    `json:"questionRemainingSec"`
	ExamRemaining     int    `json:"examRemainingSec"`
	State             string `json:"state"`
}

// GradedResponse is the terminal event of a session.
type GradedResponse struct {
	Event          Event  `json:"event"`
	TestResultID   int    `json:"testResultId"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Percentage     string `json:"percentage"`
}

// WarningResponse reports the proctoring counter after a strike.
type WarningResponse struct {
	Event        Event `json:"event"`
	WarningCount int   `json:"warningCount"`
	MaxWarnings  int   `json:"maxWarnings"`
	Escalated    bool  `json:"escalated"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
