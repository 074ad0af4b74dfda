package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DomainPerformance is the derived accuracy aggregate for one question
// domain, computed from test_answers grouped by the question's domain tag.
// It is never stored.
type DomainPerformance struct {
	Domain         string  `json:"domain"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	Accuracy       float64 `json:"accuracy"`
}

// StudentStats is one roster row for the instructor dashboard.
type StudentStats struct {
	ID                int        `json:"id"`
	Fullname          string     `json:"fullname"`
	Email             string     `json:"email"`
	CreatedAt         time.Time  `json:"created_at"`
	TotalTests        int        `json:"total_tests"`
	AvgScore          *float64   `json:"avg_score"`
	BestScore         *int       `json:"best_score"`
	LowestScore       *int       `json:"lowest_score"`
	LastTestDate      *time.Time `json:"last_test_date"`
	NeedsReassessment bool       `json:"needs_reassessment"`
}

// PerformanceRepository computes read-side aggregations over results,
// answers and feedback. Everything here is derived at read time.
type PerformanceRepository struct {
	pool *pgxpool.Pool
}

// NewPerformanceRepository creates a new PerformanceRepository.
func NewPerformanceRepository(pool *pgxpool.Pool) *PerformanceRepository {
	return &PerformanceRepository{pool: pool}
}

// DomainPerformance groups a user's answers by question domain and computes
// per-domain accuracy, best domains first.
func (r *PerformanceRepository) DomainPerformance(ctx context.Context, userID int) ([]DomainPerformance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.domain,
		        COUNT(*) AS total_questions,
		        SUM(CASE WHEN ta.is_correct THEN 1 ELSE 0 END) AS correct_answers,
		        ROUND(
		          (SUM(CASE WHEN ta.is_correct THEN 1 ELSE 0 END)::numeric / COUNT(*)::numeric) * 100,
		          2
		        ) AS accuracy
		 FROM test_answers ta
		 JOIN questions q ON ta.question_id = q.id
		 JOIN test_results tr ON ta.test_result_id = tr.id
		 WHERE tr.user_id = $1
		 GROUP BY q.domain
		 ORDER BY accuracy DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perf []DomainPerformance
	for rows.Next() {
		var d DomainPerformance
		if err := rows.Scan(&d.Domain, &d.TotalQuestions, &d.CorrectAnswers, &d.Accuracy); err != nil {
			return nil, err
		}
		perf = append(perf, d)
	}
	return perf, rows.Err()
}

// ListStudents returns a page of students with their test statistics and
// the latest needs-reassessment flag, for the instructor roster. An empty
// search matches everyone.
func (r *PerformanceRepository) ListStudents(ctx context.Context, search string, limit, offset int) ([]StudentStats, int, error) {
	countQuery := `SELECT COUNT(*) FROM users WHERE role = 'student'`
	var countArgs []interface{}
	if search != "" {
		countQuery += ` AND fullname ILIKE $1`
		countArgs = append(countArgs, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT u.id, u.fullname, COALESCE(u.email, ''), u.created_at,
	                 COUNT(DISTINCT tr.id) AS total_tests,
	                 ROUND(AVG(tr.percentage)::numeric, 2) AS avg_score,
	                 MAX(tr.score) AS best_score,
	                 MIN(tr.score) AS lowest_score,
	                 MAX(tr.completed_at) AS last_test_date,
	                 COALESCE(
	                   (SELECT needs_reassessment
	                    FROM student_feedback
	                    WHERE student_id = u.id
	                    ORDER BY created_at DESC, id DESC
	                    LIMIT 1),
	                   false
	                 ) AS needs_reassessment
	          FROM users u
	          LEFT JOIN test_results tr ON u.id = tr.user_id
	          WHERE u.role = 'student'`
	var args []interface{}
	argIdx := 1

	if search != "" {
		query += ` AND u.fullname ILIKE $1`
		args = append(args, "%"+search+"%")
		argIdx++
	}

	query += ` GROUP BY u.id, u.fullname, u.email, u.created_at
	          ORDER BY u.fullname ASC
	          LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []StudentStats
	for rows.Next() {
		var s StudentStats
		if err := rows.Scan(&s.ID, &s.Fullname, &s.Email, &s.CreatedAt,
			&s.TotalTests, &s.AvgScore, &s.BestScore, &s.LowestScore,
			&s.LastTestDate, &s.NeedsReassessment); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}
