// internal/repository/investment_repo.go
package repository

import (
	"context"

	"estocks/internal/domain"
)

// InvestmentRepository defines the interface for the fund investment ledger.
type InvestmentRepository interface {
	// CreateInvestment inserts investment and sets its generated ID.
	CreateInvestment(ctx context.Context, q DBExecutor, investment *domain.FundInvestment) error
	// GetInvestmentByID retrieves an investment by its ID.
	GetInvestmentByID(ctx context.Context, q DBExecutor, id int64) (*domain.FundInvestment, error)
	// ListInvestments returns a page of investments, newest first, and the total count.
	ListInvestments(ctx context.Context, q DBExecutor, limit, offset int) ([]domain.FundInvestment, int64, error)
	// ListInvestmentsByUser returns every investment owned by userID, newest first.
	ListInvestmentsByUser(ctx context.Context, q DBExecutor, userID int64) ([]domain.FundInvestment, error)
	// UpdateInvestment overwrites every mutable column of investment.
	UpdateInvestment(ctx context.Context, q DBExecutor, investment *domain.FundInvestment) error
	// DeleteInvestment removes the investment with the given ID.
	DeleteInvestment(ctx context.Context, q DBExecutor, id int64) error
}
