package model

import "time"

// AssignmentStatus enumerates stored assignment states. "overdue" is a
// display-only derivation and is never written to storage.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"

	// AssignmentDisplayOverdue is the computed view state for a pending or
	// in-progress assignment whose due date has passed.
	AssignmentDisplayOverdue AssignmentStatus = "overdue"
)

// ExamAssignment is one instructor-issued directive for one student.
// Fan-out assignment creates one row per targeted student.
type ExamAssignment struct {
	ID             int              `json:"id"`
	InstructorID   int              `json:"instructor_id"`
	StudentID      int              `json:"student_id"`
	ExamName       string           `json:"exam_name"`
	Description    *string          `json:"description,omitempty"`
	TotalQuestions int              `json:"total_questions"`
	PassingScore   int              `json:"passing_score"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	Status         AssignmentStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`

	// Joined display fields, populated on reads only.
	StudentName     string `json:"student_name,omitempty"`
	StudentEmail    string `json:"student_email,omitempty"`
	InstructorName  string `json:"instructor_name,omitempty"`
	InstructorEmail string `json:"instructor_email,omitempty"`
}

// DisplayStatus computes the presentation status at time now. Completed wins
// unconditionally; a due date in the past turns anything else into overdue.
func (a ExamAssignment) DisplayStatus(now time.Time) AssignmentStatus {
	if a.Status == AssignmentStatusCompleted {
		return AssignmentStatusCompleted
	}
	if a.DueDate != nil && a.DueDate.Before(now) {
		return AssignmentDisplayOverdue
	}
	return a.Status
}

// AssignExamRequest is the payload for fanning one exam out to N students.
type AssignExamRequest struct {
	StudentIDs     []int      `json:"studentIds" binding:"required,min=1,dive,min=1"`
	ExamName       string     `json:"examName" binding:"required,min=1,max=255"`
	Description    string     `json:"description" binding:"omitempty,max=2000"`
	TotalQuestions int        `json:"totalQuestions" binding:"omitempty,min=1,max=500"`
	PassingScore   int        `json:"passingScore" binding:"omitempty,min=0,max=100"`
	DueDate        *time.Time `json:"dueDate" binding:"omitempty"`
}

// UpdateAssignmentRequest is the payload for an explicit status update.
type UpdateAssignmentRequest struct {
	Status      AssignmentStatus `json:"status" binding:"required,oneof=pending in_progress completed"`
	CompletedAt *time.Time       `json:"completedAt" binding:"omitempty"`
}
