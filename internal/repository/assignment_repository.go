package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certprep/certprep-backend/internal/model"
)

// ErrUnknownStudent is returned when an assignment targets a student id with
// no matching account.
var ErrUnknownStudent = errors.New("unknown student id")

// AssignmentRepository handles exam assignment data access.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// CreateBatch inserts one assignment row per targeted student inside a
// single transaction: either every student gets the assignment or none do.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, template model.ExamAssignment, studentIDs []int) ([]model.ExamAssignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	created := make([]model.ExamAssignment, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		a := template
		a.StudentID = studentID
		a.Status = model.AssignmentStatusPending
		err := tx.QueryRow(ctx,
			`INSERT INTO exam_assignments
			   (instructor_id, student_id, exam_name, description,
			    total_questions, passing_score, due_date, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at`,
			a.InstructorID, a.StudentID, a.ExamName, a.Description,
			a.TotalQuestions, a.PassingScore, a.DueDate, a.Status,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return nil, fmt.Errorf("student %d: %w", studentID, ErrUnknownStudent)
			}
			return nil, fmt.Errorf("insert assignment for student %d: %w", studentID, err)
		}
		created = append(created, a)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// GetByID retrieves a single assignment.
func (r *AssignmentRepository) GetByID(ctx context.Context, id int) (*model.ExamAssignment, error) {
	a := &model.ExamAssignment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, instructor_id, student_id, exam_name, description,
		        total_questions, passing_score, due_date, status, created_at, completed_at
		 FROM exam_assignments WHERE id = $1`, id,
	).Scan(&a.ID, &a.InstructorID, &a.StudentID, &a.ExamName, &a.Description,
		&a.TotalQuestions, &a.PassingScore, &a.DueDate, &a.Status, &a.CreatedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Update sets the stored status and completion timestamp. The derived
// overdue view state is never written here.
func (r *AssignmentRepository) Update(ctx context.Context, id int, status model.AssignmentStatus, completedAt *time.Time) (*model.ExamAssignment, error) {
	a := &model.ExamAssignment{}
	err := r.pool.QueryRow(ctx,
		`UPDATE exam_assignments
		 SET status = $1, completed_at = $2
		 WHERE id = $3
		 RETURNING id, instructor_id, student_id, exam_name, description,
		           total_questions, passing_score, due_date, status, created_at, completed_at`,
		status, completedAt, id,
	).Scan(&a.ID, &a.InstructorID, &a.StudentID, &a.ExamName, &a.Description,
		&a.TotalQuestions, &a.PassingScore, &a.DueDate, &a.Status, &a.CreatedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an assignment outright.
func (r *AssignmentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exam_assignments WHERE id = $1`, id)
	return err
}

// ListByStudent retrieves a student's assignments with instructor identity,
// actionable ones first, then by due date.
func (r *AssignmentRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ea.id, ea.instructor_id, ea.student_id, ea.exam_name, ea.description,
		        ea.total_questions, ea.passing_score, ea.due_date, ea.status,
		        ea.created_at, ea.completed_at,
		        u.fullname, COALESCE(u.email, '')
		 FROM exam_assignments ea
		 JOIN users u ON ea.instructor_id = u.id
		 WHERE ea.student_id = $1
		 ORDER BY
		   CASE ea.status
		     WHEN 'pending' THEN 1
		     WHEN 'in_progress' THEN 2
		     ELSE 3
		   END,
		   ea.due_date ASC NULLS LAST,
		   ea.created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.ExamAssignment
	for rows.Next() {
		var a model.ExamAssignment
		if err := rows.Scan(&a.ID, &a.InstructorID, &a.StudentID, &a.ExamName, &a.Description,
			&a.TotalQuestions, &a.PassingScore, &a.DueDate, &a.Status,
			&a.CreatedAt, &a.CompletedAt, &a.InstructorName, &a.InstructorEmail); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListByInstructor retrieves everything an instructor has assigned, newest
// first, with student identity joined in.
func (r *AssignmentRepository) ListByInstructor(ctx context.Context, instructorID int) ([]model.ExamAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ea.id, ea.instructor_id, ea.student_id, ea.exam_name, ea.description,
		        ea.total_questions, ea.passing_score, ea.due_date, ea.status,
		        ea.created_at, ea.completed_at,
		        u.fullname, COALESCE(u.email, '')
		 FROM exam_assignments ea
		 JOIN users u ON ea.student_id = u.id
		 WHERE ea.instructor_id = $1
		 ORDER BY ea.created_at DESC`, instructorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.ExamAssignment
	for rows.Next() {
		var a model.ExamAssignment
		if err := rows.Scan(&a.ID, &a.InstructorID, &a.StudentID, &a.ExamName, &a.Description,
			&a.TotalQuestions, &a.PassingScore, &a.DueDate, &a.Status,
			&a.CreatedAt, &a.CompletedAt, &a.StudentName, &a.StudentEmail); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
