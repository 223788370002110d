// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet holds a user's simulated cash. There is exactly one wallet per user.
type Wallet struct {
	ID          int64           `db:"id" json:"id"`                     // Primary key, BIGSERIAL in DB
	UserID      int64           `db:"user_id" json:"user_id"`           // Owner, unique
	Balance     decimal.Decimal `db:"balance" json:"balance"`           // NUMERIC(20, 4), never negative
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"` // Time of the last debit or credit
}

// NewWallet creates an empty wallet for userID.
func NewWallet(userID int64) *Wallet {
	return &Wallet{
		UserID:      userID,
		Balance:     decimal.Zero,
		LastUpdated: time.Now().UTC(),
	}
}

// CanAfford reports whether the wallet holds at least amount.
func (w *Wallet) CanAfford(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Debit subtracts amount from the balance and stamps the wallet with at.
// Callers check CanAfford first.
func (w *Wallet) Debit(amount decimal.Decimal, at time.Time) {
	w.Balance = w.Balance.Sub(amount)
	w.LastUpdated = at
}
