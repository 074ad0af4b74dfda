package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certprep/certprep-backend/internal/model"
)

// QuestionRepository handles question bank data access. The bank is
// read-only to everything except the seeding tools.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Sample draws n pseudo-random distinct questions from the whole bank.
// Order is random and becomes the fixed session order. No domain balancing
// is attempted.
func (r *QuestionRepository) Sample(ctx context.Context, n int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, option_a, option_b, option_c, option_d,
		        correct_answer, domain, explanation
		 FROM questions
		 ORDER BY RANDOM()
		 LIMIT $1`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.CorrectAnswer, &q.Domain, &q.Explanation); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CorrectAnswers returns the correct option key for each given question id.
// IDs missing from the bank are simply absent from the map.
func (r *QuestionRepository) CorrectAnswers(ctx context.Context, ids []int) (map[int]model.OptionKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_answer FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make(map[int]model.OptionKey, len(ids))
	for rows.Next() {
		var id int
		var key model.OptionKey
		if err := rows.Scan(&id, &key); err != nil {
			return nil, err
		}
		answers[id] = key
	}
	return answers, rows.Err()
}

// Create inserts a new bank question. Used by the seeding tool only.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, option_a, option_b, option_c, option_d,
		                        correct_answer, domain, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
		q.CorrectAnswer, q.Domain, q.Explanation,
	).Scan(&q.ID)
}

// Count returns the bank size.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}
