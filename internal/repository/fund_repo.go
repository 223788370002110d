// internal/repository/fund_repo.go
package repository

import (
	"context"

	"estocks/internal/domain"
)

// FundRepository is the read-only fund catalog.
type FundRepository interface {
	// GetFundByID retrieves a fund by its ID.
	GetFundByID(ctx context.Context, q DBExecutor, id int64) (*domain.Fund, error)
	// ListFunds returns every fund ordered by name.
	ListFunds(ctx context.Context, q DBExecutor) ([]domain.Fund, error)
}
