package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/certprep/certprep-backend/internal/model"
	"github.com/certprep/certprep-backend/internal/repository"
)

// FeedbackService appends and reads instructor feedback. Entries are
// immutable history; changing a student's reassessment state means appending
// a new entry, whose flag then wins.
type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
	userRepo     *repository.UserRepository
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(feedbackRepo *repository.FeedbackRepository, userRepo *repository.UserRepository) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo, userRepo: userRepo}
}

// Add appends a feedback entry for a student. instructorID comes from the
// verified token.
func (s *FeedbackService) Add(ctx context.Context, instructorID int, req model.AddFeedbackRequest) (*model.Feedback, error) {
	if _, err := s.userRepo.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	f := &model.Feedback{
		StudentID:         req.StudentID,
		InstructorID:      instructorID,
		FeedbackText:      req.FeedbackText,
		NeedsReassessment: req.NeedsReassessment,
	}
	if req.TestResultID > 0 {
		id := req.TestResultID
		f.TestResultID = &id
	}

	if err := s.feedbackRepo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	log.Info().
		Int("instructor_id", instructorID).
		Int("student_id", req.StudentID).
		Bool("needs_reassessment", req.NeedsReassessment).
		Msg("feedback added")

	return f, nil
}

// ListForStudent returns a student's feedback history, newest first.
func (s *FeedbackService) ListForStudent(ctx context.Context, studentID int) ([]model.Feedback, error) {
	feedback, err := s.feedbackRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return feedback, nil
}
