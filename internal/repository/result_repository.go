package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certprep/certprep-backend/internal/model"
)

// ResultRepository handles persisted attempt results and their per-answer
// detail. Both are append-only.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// CreateWithAnswers persists one TestResult and its TestAnswer batch as a
// single transaction. If any part fails nothing becomes visible to readers.
func (r *ResultRepository) CreateWithAnswers(ctx context.Context, result *model.TestResult, answers []model.TestAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO test_results (user_id, score, total_questions, percentage, time_taken)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, completed_at`,
		result.UserID, result.Score, result.TotalQuestions, result.Percentage, result.TimeTaken,
	).Scan(&result.ID, &result.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	rows := make([][]interface{}, 0, len(answers))
	for i := range answers {
		answers[i].TestResultID = result.ID
		rows = append(rows, []interface{}{
			result.ID, answers[i].QuestionID, answers[i].UserAnswer, answers[i].IsCorrect,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"test_answers"},
		[]string{"test_result_id", "question_id", "user_answer", "is_correct"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy answers: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a result together with its owner's name.
func (r *ResultRepository) GetByID(ctx context.Context, id int) (*model.TestResult, string, error) {
	res := &model.TestResult{}
	var fullname string
	err := r.pool.QueryRow(ctx,
		`SELECT tr.id, tr.user_id, tr.score, tr.total_questions, tr.percentage,
		        tr.time_taken, tr.completed_at, u.fullname
		 FROM test_results tr
		 JOIN users u ON tr.user_id = u.id
		 WHERE tr.id = $1`, id,
	).Scan(&res.ID, &res.UserID, &res.Score, &res.TotalQuestions, &res.Percentage,
		&res.TimeTaken, &res.CompletedAt, &fullname)
	if err != nil {
		return nil, "", err
	}
	return res, fullname, nil
}

// ListAnswers retrieves the per-answer review detail for a result, joined
// with the question text, options, correct key and explanation.
func (r *ResultRepository) ListAnswers(ctx context.Context, resultID int) ([]model.AnswerReview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.question_text, q.option_a, q.option_b, q.option_c, q.option_d,
		        q.correct_answer, q.explanation, q.domain,
		        ta.user_answer, ta.is_correct
		 FROM test_answers ta
		 JOIN questions q ON ta.question_id = q.id
		 WHERE ta.test_result_id = $1
		 ORDER BY q.id`, resultID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []model.AnswerReview
	for rows.Next() {
		var a model.AnswerReview
		if err := rows.Scan(&a.QuestionID, &a.QuestionText, &a.OptionA, &a.OptionB, &a.OptionC, &a.OptionD,
			&a.CorrectAnswer, &a.Explanation, &a.Domain, &a.UserAnswer, &a.IsCorrect); err != nil {
			return nil, err
		}
		reviews = append(reviews, a)
	}
	return reviews, rows.Err()
}

// ListByUser retrieves a user's result history, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID int) ([]model.TestResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, score, total_questions, percentage, time_taken, completed_at
		 FROM test_results
		 WHERE user_id = $1
		 ORDER BY completed_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var res model.TestResult
		if err := rows.Scan(&res.ID, &res.UserID, &res.Score, &res.TotalQuestions,
			&res.Percentage, &res.TimeTaken, &res.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
