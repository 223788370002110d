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

const investmentColumns = `id, fund_id, user_id, amount, buy_price, buy_date, maturity`

// InvestmentRepository implements repository.InvestmentRepository for PostgreSQL.
type InvestmentRepository struct{}

// NewInvestmentRepository creates a new InvestmentRepository.
func NewInvestmentRepository(db *sqlx.DB) repository.InvestmentRepository {
	return &InvestmentRepository{}
}

// CreateInvestment inserts a new investment record using the provided DBExecutor.
func (r *InvestmentRepository) CreateInvestment(ctx context.Context, q repository.DBExecutor, inv *domain.FundInvestment) error {
	query := `INSERT INTO fund_investments (fund_id, user_id, amount, buy_price, buy_date, maturity)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		inv.FundID,
		inv.UserID,
		inv.Amount,
		inv.BuyPrice,
		inv.BuyDate,
		inv.Maturity,
	).Scan(&inv.ID)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("%w: investment references a missing fund or user", util.ErrInvalidInput)
		}
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// GetInvestmentByID retrieves an investment by its ID.
func (r *InvestmentRepository) GetInvestmentByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.FundInvestment, error) {
	var inv domain.FundInvestment
	query := `SELECT ` + investmentColumns + ` FROM fund_investments WHERE id = $1`
	if err := q.GetContext(ctx, &inv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get investment %d: %w", id, err)
	}
	return &inv, nil
}

// ListInvestments retrieves a page of investments and the total count.
// It performs two queries: one for the data and one for the total count.
func (r *InvestmentRepository) ListInvestments(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.FundInvestment, int64, error) {
	investments := []domain.FundInvestment{}

	query := `SELECT ` + investmentColumns + ` FROM fund_investments
		ORDER BY buy_date DESC, id DESC
		LIMIT $1 OFFSET $2`
	if err := q.SelectContext(ctx, &investments, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list investments: %w", err)
	}

	var totalCount int64
	if err := q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM fund_investments`); err != nil {
		return nil, 0, fmt.Errorf("failed to count investments: %w", err)
	}

	return investments, totalCount, nil
}

// ListInvestmentsByUser returns every investment owned by userID.
func (r *InvestmentRepository) ListInvestmentsByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.FundInvestment, error) {
	investments := []domain.FundInvestment{}
	query := `SELECT ` + investmentColumns + ` FROM fund_investments
		WHERE user_id = $1
		ORDER BY buy_date DESC, id DESC`
	if err := q.SelectContext(ctx, &investments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list investments for user %d: %w", userID, err)
	}
	return investments, nil
}

// UpdateInvestment overwrites the stored record with inv.
func (r *InvestmentRepository) UpdateInvestment(ctx context.Context, q repository.DBExecutor, inv *domain.FundInvestment) error {
	query := `UPDATE fund_investments
		SET fund_id = $1, user_id = $2, amount = $3, buy_price = $4, buy_date = $5, maturity = $6
		WHERE id = $7`
	result, err := q.ExecContext(ctx, query,
		inv.FundID, inv.UserID, inv.Amount, inv.BuyPrice, inv.BuyDate, inv.Maturity, inv.ID)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("%w: investment references a missing fund or user", util.ErrInvalidInput)
		}
		return fmt.Errorf("failed to update investment %d: %w", inv.ID, err)
	}
	return expectOneRow(result, "investment", inv.ID)
}

// DeleteInvestment removes the investment with the given ID.
func (r *InvestmentRepository) DeleteInvestment(ctx context.Context, q repository.DBExecutor, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM fund_investments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment %d: %w", id, err)
	}
	return expectOneRow(result, "investment", id)
}
