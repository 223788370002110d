package auth

import (
	"context"
	"errors"
	"log/slog"

	"estocks/internal/repository"
	"estocks/internal/util"
)

// Directory resolves a caller's session token to a known user id.
type Directory struct {
	tokens     *TokenManager
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	logger     *slog.Logger
}

// NewDirectory creates a Directory.
func NewDirectory(tokens *TokenManager, dbExecutor repository.DBExecutor, userRepo repository.UserRepository, logger *slog.Logger) *Directory {
	return &Directory{tokens: tokens, dbExecutor: dbExecutor, userRepo: userRepo, logger: logger}
}

// ResolveCaller returns the user id behind identity. A valid token for a user
// that no longer exists does not resolve.
func (d *Directory) ResolveCaller(ctx context.Context, identity string) (int64, bool) {
	if identity == "" {
		return 0, false
	}
	userID, err := d.tokens.Parse(identity)
	if err != nil {
		d.logger.Debug("Rejected session token", "error", err)
		return 0, false
	}

	if _, err := d.userRepo.GetUserByID(ctx, d.dbExecutor, userID); err != nil {
		if !errors.Is(err, util.ErrNotFound) {
			d.logger.Error("Failed to look up session user", "user_id", userID, "error", err)
		}
		return 0, false
	}
	return userID, true
}
