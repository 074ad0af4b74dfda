package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/certprep/certprep-backend/internal/model"
	"github.com/certprep/certprep-backend/internal/repository"
)

// AssignmentService manages instructor-issued exam assignments.
type AssignmentService struct {
	assignmentRepo *repository.AssignmentRepository
	userRepo       *repository.UserRepository
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(assignmentRepo *repository.AssignmentRepository, userRepo *repository.UserRepository) *AssignmentService {
	return &AssignmentService{assignmentRepo: assignmentRepo, userRepo: userRepo}
}

// Assign fans one exam directive out to every listed student inside a single
// transaction: either all rows are created or none are. The caller's claims
// have already been role-gated by middleware; instructorID comes from the
// verified token, never from the request body.
func (s *AssignmentService) Assign(ctx context.Context, instructorID int, req model.AssignExamRequest) ([]model.ExamAssignment, error) {
	totalQuestions := req.TotalQuestions
	if totalQuestions == 0 {
		totalQuestions = 100
	}
	passingScore := req.PassingScore
	if passingScore == 0 {
		passingScore = 70
	}

	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	template := model.ExamAssignment{
		InstructorID:   instructorID,
		ExamName:       req.ExamName,
		Description:    description,
		TotalQuestions: totalQuestions,
		PassingScore:   passingScore,
		DueDate:        req.DueDate,
		Status:         model.AssignmentStatusPending,
	}

	created, err := s.assignmentRepo.CreateBatch(ctx, template, req.StudentIDs)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownStudent) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create assignments: %w", err)
	}

	log.Info().
		Int("instructor_id", instructorID).
		Int("students", len(req.StudentIDs)).
		Str("exam_name", req.ExamName).
		Msg("exam assigned")

	return created, nil
}

// ListForStudent returns a student's assignments with display status
// computed against the current clock.
func (s *AssignmentService) ListForStudent(ctx context.Context, studentID int) ([]model.ExamAssignment, error) {
	assignments, err := s.assignmentRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	now := time.Now()
	for i := range assignments {
		assignments[i].Status = assignments[i].DisplayStatus(now)
	}
	return assignments, nil
}

// ListForInstructor returns every assignment an instructor has issued.
func (s *AssignmentService) ListForInstructor(ctx context.Context, instructorID int) ([]model.ExamAssignment, error) {
	assignments, err := s.assignmentRepo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	now := time.Now()
	for i := range assignments {
		assignments[i].Status = assignments[i].DisplayStatus(now)
	}
	return assignments, nil
}

// UpdateStatus transitions one assignment. Students may only touch their own
// assignments; instructors may only touch assignments they issued.
func (s *AssignmentService) UpdateStatus(ctx context.Context, claims *Claims, assignmentID int, req model.UpdateAssignmentRequest) (*model.ExamAssignment, error) {
	existing, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if err := s.authorize(claims, existing); err != nil {
		return nil, err
	}

	completedAt := req.CompletedAt
	if req.Status == model.AssignmentStatusCompleted && completedAt == nil {
		now := time.Now()
		completedAt = &now
	}
	if req.Status != model.AssignmentStatusCompleted {
		completedAt = nil
	}

	updated, err := s.assignmentRepo.Update(ctx, assignmentID, req.Status, completedAt)
	if err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	return updated, nil
}

// Delete removes an assignment. Only the issuing instructor may delete.
func (s *AssignmentService) Delete(ctx context.Context, claims *Claims, assignmentID int) error {
	existing, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get assignment: %w", err)
	}
	if claims.Role != model.RoleInstructor || existing.InstructorID != claims.UserID {
		return ErrNotOwner
	}
	if err := s.assignmentRepo.Delete(ctx, assignmentID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

func (s *AssignmentService) authorize(claims *Claims, a *model.ExamAssignment) error {
	switch claims.Role {
	case model.RoleInstructor:
		if a.InstructorID != claims.UserID {
			return ErrNotOwner
		}
	default:
		if a.StudentID != claims.UserID {
			return ErrNotOwner
		}
	}
	return nil
}
