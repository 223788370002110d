// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"estocks/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new wallet to the database.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByUserID retrieves the wallet owned by userID.
	GetWalletByUserID(ctx context.Context, q DBExecutor, userID int64) (*domain.Wallet, error)
	// GetWalletByUserIDForUpdate retrieves the wallet owned by userID and locks
	// its row until the surrounding transaction ends. q must be a transaction.
	GetWalletByUserIDForUpdate(ctx context.Context, q DBExecutor, userID int64) (*domain.Wallet, error)
	// UpdateWallet persists wallet's balance and last-updated time.
	UpdateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// CreditWallet adds amount to the wallet owned by userID.
	CreditWallet(ctx context.Context, q DBExecutor, userID int64, amount decimal.Decimal) error
}
