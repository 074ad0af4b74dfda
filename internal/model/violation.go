package model

import "time"

// ViolationEvent enumerates the proctoring events a test client reports.
type ViolationEvent string

const (
	ViolationMinimize ViolationEvent = "minimize"
	ViolationBlur     ViolationEvent = "blur"
)

// ValidViolationEvent reports whether e is a known proctoring event.
func ValidViolationEvent(e ViolationEvent) bool {
	return e == ViolationMinimize || e == ViolationBlur
}

// Violation is one recorded proctoring strike during a live session.
// WarningCount is the session counter after this strike; Escalated marks the
// strike that pushed the session past its warning budget.
type Violation struct {
	ID           int            `json:"id"`
	UserID       int            `json:"user_id"`
	SessionToken string         `json:"session_token"`
	Event        ViolationEvent `json:"event"`
	WarningCount int            `json:"warning_count"`
	Escalated    bool           `json:"escalated"`
	RecordedAt   time.Time      `json:"recorded_at"`
}
