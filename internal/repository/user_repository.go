package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certprep/certprep-backend/internal/model"
)

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, fullname, email, COALESCE(password_hash, ''), role, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Fullname, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, fullname, email, COALESCE(password_hash, ''), role, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Fullname, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a registered user with credentials.
func (r *UserRepository) Create(ctx context.Context, fullname, email, passwordHash string, role model.Role) (*model.User, error) {
	u := &model.User{Fullname: fullname, Email: &email, Role: role}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (fullname, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		fullname, email, passwordHash, role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetOrCreateByName resolves a guest test taker by fullname, creating the
// user on first sight. Matching is case-insensitive; the stored casing of an
// existing row wins.
func (r *UserRepository) GetOrCreateByName(ctx context.Context, fullname string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, fullname, role, created_at
		 FROM users WHERE LOWER(fullname) = LOWER($1)
		 LIMIT 1`, fullname,
	).Scan(&u.ID, &u.Fullname, &u.Role, &u.CreatedAt)
	if err == nil {
		return u, nil
	}

	u = &model.User{Fullname: fullname, Role: model.RoleStudent}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO users (fullname, role) VALUES ($1, $2)
		 RETURNING id, created_at`,
		fullname, model.RoleStudent,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByName finds a user by fullname without creating one. Matching is
// case-insensitive.
func (r *UserRepository) GetByName(ctx context.Context, fullname string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, fullname, email, role, created_at
		 FROM users WHERE LOWER(fullname) = LOWER($1)
		 LIMIT 1`, fullname,
	).Scan(&u.ID, &u.Fullname, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// EmailExists reports whether a user with this email is already registered.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}
