package model

import "time"

// Feedback is one immutable instructor note about a student, optionally tied
// to a specific test result. Rows form an append-only history; the student's
// needs-reassessment aggregate is the flag of the newest row only.
type Feedback struct {
	ID                int       `json:"id"`
	StudentID         int       `json:"student_id"`
	InstructorID      int       `json:"instructor_id"`
	TestResultID      *int      `json:"test_result_id,omitempty"`
	FeedbackText      string    `json:"feedback_text"`
	NeedsReassessment bool      `json:"needs_reassessment"`
	CreatedAt         time.Time `json:"created_at"`

	// Joined display fields, populated on reads only.
	InstructorName  string `json:"instructor_name,omitempty"`
	InstructorEmail string `json:"instructor_email,omitempty"`
	TestScore       *int   `json:"test_score,omitempty"`
}

// AddFeedbackRequest is the payload for appending a feedback entry.
type AddFeedbackRequest struct {
	StudentID         int    `json:"studentId" binding:"required,min=1"`
	TestResultID      int    `json:"testResultId" binding:"omitempty,min=1"`
	FeedbackText      string `json:"feedbackText" binding:"required,min=1,max=5000"`
	NeedsReassessment bool   `json:"needsReassessment"`
}
