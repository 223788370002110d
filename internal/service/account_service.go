// internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estocks/internal/auth"
	"estocks/internal/domain"
	"estocks/internal/repository"
	"estocks/internal/util"
	"estocks/pkg/db"

	"github.com/shopspring/decimal"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, username string) (token string, expires time.Time, err error)
}

// Session is the result of a successful login.
type Session struct {
	User    *domain.User
	Token   string
	Expires time.Time
}

// AccountService defines registration, login and wallet operations.
type AccountService interface {
	Register(ctx context.Context, username, password string) (*domain.User, *domain.Wallet, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Wallet, error)
}

type accountService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	walletRepo repository.WalletRepository
	tokens     TokenIssuer
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	tokens TokenIssuer,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) AccountService {
	return &accountService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		tokens:     tokens,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// Register creates a user and an empty wallet in one transaction.
func (s *accountService) Register(ctx context.Context, username, password string) (*domain.User, *domain.Wallet, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, util.ErrInvalidInput
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("register: failed to hash password: %w", err)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("register: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("register: transaction controller does not implement DBExecutor")
	}

	_, err = s.userRepo.GetUserByUsername(ctx, txExecutor, username)
	if err == nil {
		return nil, nil, util.ErrDuplicateEntry
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, nil, fmt.Errorf("register: failed to check existing user: %w", err)
	}

	user := domain.NewUser(username, hash)
	if err := s.userRepo.CreateUser(ctx, txExecutor, user); err != nil {
		return nil, nil, fmt.Errorf("register: failed to create user: %w", err)
	}

	wallet := domain.NewWallet(user.ID)
	if err := s.walletRepo.CreateWallet(ctx, txExecutor, wallet); err != nil {
		return nil, nil, fmt.Errorf("register: failed to create wallet: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("register: failed to commit transaction: %w", err)
	}

	return user, wallet, nil
}

// Login verifies the password and issues a session token.
func (s *accountService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: failed to get user: %w", err)
	}
	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &Session{User: user, Token: token, Expires: expires}, nil
}

// GetWallet returns the wallet owned by userID.
func (s *accountService) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: failed to get wallet of user %d: %w", userID, err)
	}
	return wallet, nil
}

// Deposit adds simulated cash to the user's wallet. The credit is a single
// UPDATE, so it queues behind an invest holding the wallet row lock.
func (s *accountService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Wallet, error) {
	if !domain.ValidAmount(amount) {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("deposit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("deposit: transaction controller does not implement DBExecutor")
	}

	if err := s.walletRepo.CreditWallet(ctx, txExecutor, userID, amount); err != nil {
		switch {
		case errors.Is(err, util.ErrNotFound):
			return nil, util.ErrWalletNotFound
		case errors.Is(err, util.ErrInvalidInput):
			return nil, err
		}
		return nil, fmt.Errorf("deposit: failed to update wallet balance: %w", err)
	}

	updated, err := s.walletRepo.GetWalletByUserID(ctx, txExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("deposit: failed to re-fetch wallet of user %d: %w", userID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("deposit: failed to commit transaction: %w", err)
	}

	return updated, nil
}
