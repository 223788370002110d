// internal/service/investment_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estocks/internal/domain"
	"estocks/internal/metrics"
	"estocks/internal/repository"
	"estocks/internal/util"
	"estocks/pkg/db"

	"github.com/shopspring/decimal"
)

// AccountDirectory resolves an authenticated caller to a user id.
type AccountDirectory interface {
	ResolveCaller(ctx context.Context, identity string) (userID int64, ok bool)
}

// InvestmentService defines fund browsing, the invest transaction and the
// administrative investment ledger operations.
type InvestmentService interface {
	Invest(ctx context.Context, callerIdentity string, fundID int64, amount decimal.Decimal) (*domain.InvestmentReceipt, error)

	ListFunds(ctx context.Context) ([]domain.Fund, error)
	GetFund(ctx context.Context, fundID int64) (*domain.Fund, error)

	ListInvestments(ctx context.Context, limit, offset int) ([]domain.FundInvestment, int64, error)
	GetInvestment(ctx context.Context, id int64) (*domain.FundInvestment, error)
	CreateInvestment(ctx context.Context, investment *domain.FundInvestment) error
	UpdateInvestment(ctx context.Context, investment *domain.FundInvestment) error
	DeleteInvestment(ctx context.Context, id int64) error
	ListPositions(ctx context.Context, userID int64) ([]domain.Position, error)
}

// investmentService implements the InvestmentService interface.
type investmentService struct {
	dbBeginner     db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor     repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	accounts       AccountDirectory
	walletRepo     repository.WalletRepository
	fundRepo       repository.FundRepository
	investmentRepo repository.InvestmentRepository
	beginTx        db.BeginTxFunc
	commitTx       db.CommitTxFunc
	rollbackTx     db.RollbackTxFunc

	walletLocks *KeyedMutex
	now         func() time.Time
}

// NewInvestmentService creates a new instance of InvestmentService.
func NewInvestmentService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accounts AccountDirectory,
	walletRepo repository.WalletRepository,
	fundRepo repository.FundRepository,
	investmentRepo repository.InvestmentRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) InvestmentService {
	return &investmentService{
		dbBeginner:     dbBeginner,
		dbExecutor:     dbExecutor,
		accounts:       accounts,
		walletRepo:     walletRepo,
		fundRepo:       fundRepo,
		investmentRepo: investmentRepo,
		beginTx:        beginTx,
		commitTx:       commitTx,
		rollbackTx:     rollbackTx,
		walletLocks:    NewKeyedMutex(),
		now:            time.Now,
	}
}

// Invest buys units of fundID for amount out of the caller's wallet. The
// wallet debit and the new investment record are committed together or not
// at all.
func (s *investmentService) Invest(ctx context.Context, callerIdentity string, fundID int64, amount decimal.Decimal) (*domain.InvestmentReceipt, error) {
	receipt, err := s.invest(ctx, callerIdentity, fundID, amount)
	metrics.ObserveInvest(err, amount)
	return receipt, err
}

func (s *investmentService) invest(ctx context.Context, callerIdentity string, fundID int64, amount decimal.Decimal) (*domain.InvestmentReceipt, error) {
	if !domain.ValidAmount(amount) || fundID <= 0 {
		return nil, util.ErrInvalidInput
	}

	userID, ok := s.accounts.ResolveCaller(ctx, callerIdentity)
	if !ok {
		return nil, util.ErrUnauthenticated
	}

	// Balance check and debit must not interleave with another invest by the
	// same user. The row lock below covers other processes.
	unlock, err := s.walletLocks.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("invest: waiting for wallet of user %d: %w", userID, err)
	}
	defer unlock()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("%w: invest: failed to begin transaction: %w", util.ErrPersistence, err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("%w: invest: transaction controller does not implement DBExecutor", util.ErrPersistence)
	}

	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, txExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("%w: invest: failed to get wallet of user %d: %w", util.ErrPersistence, userID, err)
	}

	fund, err := s.fundRepo.GetFundByID(ctx, txExecutor, fundID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrFundNotFound
		}
		return nil, fmt.Errorf("%w: invest: failed to get fund %d: %w", util.ErrPersistence, fundID, err)
	}
	if !fund.IsPriced() {
		return nil, fmt.Errorf("%w: fund %d has NAV %s", util.ErrInvalidFundState, fund.ID, fund.NetAssetValue)
	}

	if !wallet.CanAfford(amount) {
		return nil, util.ErrInsufficientFunds
	}

	now := s.now().UTC()
	investment := domain.NewFundInvestment(fund, userID, amount, now)
	wallet.Debit(amount, now)

	if err := s.investmentRepo.CreateInvestment(ctx, txExecutor, investment); err != nil {
		return nil, fmt.Errorf("%w: invest: failed to create investment: %w", util.ErrPersistence, err)
	}
	if err := s.walletRepo.UpdateWallet(ctx, txExecutor, wallet); err != nil {
		return nil, fmt.Errorf("%w: invest: failed to debit wallet %d: %w", util.ErrPersistence, wallet.ID, err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("%w: invest: failed to commit transaction: %w", util.ErrPersistence, err)
	}

	return &domain.InvestmentReceipt{
		InvestmentID: investment.ID,
		FundID:       fund.ID,
		FundName:     fund.Name,
		Amount:       amount,
		Units:        investment.Units(),
		BuyPrice:     investment.BuyPrice,
		BuyDate:      investment.BuyDate,
		Maturity:     investment.Maturity,
		NewBalance:   wallet.Balance,
	}, nil
}

// ListFunds returns the fund catalog.
func (s *investmentService) ListFunds(ctx context.Context) ([]domain.Fund, error) {
	funds, err := s.fundRepo.ListFunds(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	return funds, nil
}

// GetFund returns a single fund.
func (s *investmentService) GetFund(ctx context.Context, fundID int64) (*domain.Fund, error) {
	fund, err := s.fundRepo.GetFundByID(ctx, s.dbExecutor, fundID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrFundNotFound
		}
		return nil, fmt.Errorf("get fund %d: %w", fundID, err)
	}
	return fund, nil
}

// ListInvestments returns a page of the investment ledger and its total size.
func (s *investmentService) ListInvestments(ctx context.Context, limit, offset int) ([]domain.FundInvestment, int64, error) {
	investments, total, err := s.investmentRepo.ListInvestments(ctx, s.dbExecutor, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list investments: %w", err)
	}
	return investments, total, nil
}

// GetInvestment returns one investment record.
func (s *investmentService) GetInvestment(ctx context.Context, id int64) (*domain.FundInvestment, error) {
	investment, err := s.investmentRepo.GetInvestmentByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get investment %d: %w", id, err)
	}
	return investment, nil
}

// CreateInvestment records an investment directly, without touching any wallet.
// A zero BuyDate defaults to now and a zero Maturity to one year after BuyDate.
func (s *investmentService) CreateInvestment(ctx context.Context, investment *domain.FundInvestment) error {
	if investment.BuyDate.IsZero() {
		investment.BuyDate = s.now().UTC()
	}
	if investment.Maturity.IsZero() {
		investment.Maturity = domain.MaturityFor(investment.BuyDate)
	}
	if err := validateInvestment(investment); err != nil {
		return err
	}
	if err := s.investmentRepo.CreateInvestment(ctx, s.dbExecutor, investment); err != nil {
		return fmt.Errorf("create investment: %w", err)
	}
	return nil
}

// UpdateInvestment overwrites an existing investment record.
func (s *investmentService) UpdateInvestment(ctx context.Context, investment *domain.FundInvestment) error {
	if investment.ID <= 0 {
		return util.ErrInvalidInput
	}
	if investment.Maturity.IsZero() {
		investment.Maturity = domain.MaturityFor(investment.BuyDate)
	}
	if err := validateInvestment(investment); err != nil {
		return err
	}
	if err := s.investmentRepo.UpdateInvestment(ctx, s.dbExecutor, investment); err != nil {
		return fmt.Errorf("update investment %d: %w", investment.ID, err)
	}
	return nil
}

// DeleteInvestment removes an investment record.
func (s *investmentService) DeleteInvestment(ctx context.Context, id int64) error {
	if err := s.investmentRepo.DeleteInvestment(ctx, s.dbExecutor, id); err != nil {
		return fmt.Errorf("delete investment %d: %w", id, err)
	}
	return nil
}

// ListPositions returns the user's investments valued at each fund's current NAV.
func (s *investmentService) ListPositions(ctx context.Context, userID int64) ([]domain.Position, error) {
	investments, err := s.investmentRepo.ListInvestmentsByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	funds := make(map[int64]*domain.Fund)
	positions := make([]domain.Position, 0, len(investments))
	for _, inv := range investments {
		fund, seen := funds[inv.FundID]
		if !seen {
			fund, err = s.fundRepo.GetFundByID(ctx, s.dbExecutor, inv.FundID)
			if err != nil {
				return nil, fmt.Errorf("list positions: fund %d: %w", inv.FundID, err)
			}
			funds[inv.FundID] = fund
		}
		positions = append(positions, domain.NewPosition(inv, fund))
	}
	return positions, nil
}

func validateInvestment(inv *domain.FundInvestment) error {
	switch {
	case inv.FundID <= 0, inv.UserID <= 0:
		return fmt.Errorf("%w: fund_id and user_id are required", util.ErrInvalidInput)
	case !domain.ValidAmount(inv.Amount):
		return fmt.Errorf("%w: amount must be positive with at most %d decimal places", util.ErrInvalidInput, domain.MoneyScale)
	case !domain.ValidAmount(inv.BuyPrice):
		return fmt.Errorf("%w: buy_price must be positive with at most %d decimal places", util.ErrInvalidInput, domain.MoneyScale)
	case inv.BuyDate.IsZero():
		return fmt.Errorf("%w: buy_date is required", util.ErrInvalidInput)
	case inv.Maturity.Before(inv.BuyDate):
		return fmt.Errorf("%w: maturity precedes buy_date", util.ErrInvalidInput)
	}
	return nil
}
