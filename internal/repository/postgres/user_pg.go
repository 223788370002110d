// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"estocks/internal/domain"
	"estocks/internal/repository"
	"estocks/internal/util"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, password_hash, created_at, updated_at`

// UserRepository stores investor accounts in the users table.
type UserRepository struct{}

// NewUserRepository creates a UserRepository. Queries run on the executor
// passed to each call, so registration can share its transaction with the
// wallet insert.
func NewUserRepository(_ *sqlx.DB) repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts an account with its bcrypt hash and sets user.ID.
// A taken username maps to util.ErrDuplicateEntry.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (username, password_hash, created_at, updated_at)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create account %q: %w", user.Username, err)
	}
	return nil
}

// GetUserByID loads the account behind a session token.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	return r.getUser(ctx, q, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByUsername loads the account a login or registration names.
func (r *UserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	return r.getUser(ctx, q, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) getUser(ctx context.Context, q repository.DBExecutor, query string, key interface{}) (*domain.User, error) {
	var user domain.User
	if err := q.GetContext(ctx, &user, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account %v: %w", key, err)
	}
	return &user, nil
}
