// internal/domain/investment.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundInvestment is one purchase of fund units. BuyPrice is the NAV snapshot
// taken at purchase time and is the source of truth for the unit count.
type FundInvestment struct {
	ID       int64           `db:"id" json:"investment_id"`
	FundID   int64           `db:"fund_id" json:"fund_id"`
	UserID   int64           `db:"user_id" json:"user_id"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	BuyPrice decimal.Decimal `db:"buy_price" json:"buy_price"`
	BuyDate  time.Time       `db:"buy_date" json:"buy_date"`
	Maturity time.Time       `db:"maturity" json:"maturity"`
}

// NewFundInvestment records a purchase of amount into fund at the fund's
// current NAV. Maturity is one year after buyDate.
func NewFundInvestment(fund *Fund, userID int64, amount decimal.Decimal, buyDate time.Time) *FundInvestment {
	return &FundInvestment{
		FundID:   fund.ID,
		UserID:   userID,
		Amount:   amount,
		BuyPrice: fund.NetAssetValue,
		BuyDate:  buyDate,
		Maturity: MaturityFor(buyDate),
	}
}

// MaturityFor returns the maturity date of an investment bought at buyDate.
func MaturityFor(buyDate time.Time) time.Time {
	return buyDate.AddDate(1, 0, 0)
}

// Units is amount / buy price. It is never persisted.
func (i *FundInvestment) Units() decimal.Decimal {
	if !i.BuyPrice.IsPositive() {
		return decimal.Zero
	}
	return i.Amount.Div(i.BuyPrice)
}

// ValueAt values the position at the given NAV.
func (i *FundInvestment) ValueAt(nav decimal.Decimal) decimal.Decimal {
	return i.Units().Mul(nav)
}

// InvestmentReceipt is returned to the caller after a successful purchase.
type InvestmentReceipt struct {
	InvestmentID int64           `json:"investment_id"`
	FundID       int64           `json:"fund_id"`
	FundName     string          `json:"fund_name"`
	Amount       decimal.Decimal `json:"amount"`
	Units        decimal.Decimal `json:"units"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	BuyDate      time.Time       `json:"buy_date"`
	Maturity     time.Time       `json:"maturity"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}

// Position is an investment enriched with the fund's current NAV for display.
type Position struct {
	FundInvestment
	FundName     string          `json:"fund_name"`
	CurrentNAV   decimal.Decimal `json:"current_nav"`
	Units        decimal.Decimal `json:"units"`
	CurrentValue decimal.Decimal `json:"current_value"`
	GainLoss     decimal.Decimal `json:"gain_loss"`
}

// NewPosition values inv against fund's current NAV.
func NewPosition(inv FundInvestment, fund *Fund) Position {
	value := inv.ValueAt(fund.NetAssetValue)
	return Position{
		FundInvestment: inv,
		FundName:       fund.Name,
		CurrentNAV:     fund.NetAssetValue,
		Units:          inv.Units().Round(4),
		CurrentValue:   value.Round(2),
		GainLoss:       value.Sub(inv.Amount).Round(2),
	}
}
