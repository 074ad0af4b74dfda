package model

import (
	"testing"
	"time"
)

func TestDisplayStatusOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		a    ExamAssignment
		want AssignmentStatus
	}{
		{"pending before due", ExamAssignment{Status: AssignmentStatusPending, DueDate: &future}, AssignmentStatusPending},
		{"pending past due", ExamAssignment{Status: AssignmentStatusPending, DueDate: &past}, AssignmentDisplayOverdue},
		{"in progress past due", ExamAssignment{Status: AssignmentStatusInProgress, DueDate: &past}, AssignmentDisplayOverdue},
		{"completed past due stays completed", ExamAssignment{Status: AssignmentStatusCompleted, DueDate: &past}, AssignmentStatusCompleted},
		{"no due date", ExamAssignment{Status: AssignmentStatusPending}, AssignmentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.DisplayStatus(now); got != tt.want {
				t.Errorf("DisplayStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayStatusDoesNotMutate(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	a := ExamAssignment{Status: AssignmentStatusPending, DueDate: &past}

	if got := a.DisplayStatus(time.Now()); got != AssignmentDisplayOverdue {
		t.Fatalf("DisplayStatus() = %q, want overdue", got)
	}
	if a.Status != AssignmentStatusPending {
		t.Errorf("stored status changed to %q, overdue must stay a view-only state", a.Status)
	}
}
