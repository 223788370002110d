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

// FundRepository implements repository.FundRepository for PostgreSQL.
type FundRepository struct{}

// NewFundRepository creates a new FundRepository.
func NewFundRepository(db *sqlx.DB) repository.FundRepository {
	return &FundRepository{}
}

// GetFundByID retrieves a fund by its ID.
func (r *FundRepository) GetFundByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Fund, error) {
	var fund domain.Fund
	query := `SELECT id, name, net_asset_value FROM funds WHERE id = $1`
	if err := q.GetContext(ctx, &fund, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get fund %d: %w", id, err)
	}
	return &fund, nil
}

// ListFunds returns every fund ordered by name.
func (r *FundRepository) ListFunds(ctx context.Context, q repository.DBExecutor) ([]domain.Fund, error) {
	funds := []domain.Fund{}
	query := `SELECT id, name, net_asset_value FROM funds ORDER BY name`
	if err := q.SelectContext(ctx, &funds, query); err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	return funds, nil
}
