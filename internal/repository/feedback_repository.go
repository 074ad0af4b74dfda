package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certprep/certprep-backend/internal/model"
)

// FeedbackRepository handles the append-only feedback history.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create appends one immutable feedback row and returns its id.
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO student_feedback
		   (student_id, instructor_id, test_result_id, feedback_text, needs_reassessment)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		f.StudentID, f.InstructorID, f.TestResultID, f.FeedbackText, f.NeedsReassessment,
	).Scan(&f.ID, &f.CreatedAt)
}

// ListByStudent retrieves a student's feedback history, newest first, with
// instructor identity and the related result's score where present.
func (r *FeedbackRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Feedback, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sf.id, sf.student_id, sf.instructor_id, sf.test_result_id,
		        sf.feedback_text, sf.needs_reassessment, sf.created_at,
		        u.fullname, COALESCE(u.email, ''), tr.score
		 FROM student_feedback sf
		 JOIN users u ON sf.instructor_id = u.id
		 LEFT JOIN test_results tr ON sf.test_result_id = tr.id
		 WHERE sf.student_id = $1
		 ORDER BY sf.created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedback []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.StudentID, &f.InstructorID, &f.TestResultID,
			&f.FeedbackText, &f.NeedsReassessment, &f.CreatedAt,
			&f.InstructorName, &f.InstructorEmail, &f.TestScore); err != nil {
			return nil, err
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}

// LatestReassessmentFlag returns the needs-reassessment flag of the
// student's newest feedback row. A student with no feedback reads false:
// only the latest entry ever speaks for the history.
func (r *FeedbackRepository) LatestReassessmentFlag(ctx context.Context, studentID int) (bool, error) {
	var flag bool
	err := r.pool.QueryRow(ctx,
		`SELECT needs_reassessment
		 FROM student_feedback
		 WHERE student_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, studentID,
	).Scan(&flag)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	return flag, err
}
