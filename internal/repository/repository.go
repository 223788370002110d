// internal/repository/repository.go
package repository

import (
	"context"
	"database/sql"

	"estocks/internal/domain"
)

// DBExecutor is the query surface shared by *sqlx.DB and *sqlx.Tx. Every
// repository method takes one, so the caller decides whether a read or write
// joins an open transaction.
type DBExecutor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// UserRepository stores accounts. Lookups return util.ErrNotFound when no
// row matches, and CreateUser returns util.ErrDuplicateEntry for a taken
// username.
type UserRepository interface {
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	GetUserByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	// GetUserByUsername matches the username exactly.
	GetUserByUsername(ctx context.Context, q DBExecutor, username string) (*domain.User, error)
}
