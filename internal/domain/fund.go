// internal/domain/fund.go
package domain

import "github.com/shopspring/decimal"

// Fund is an investable fund priced by its net asset value per unit.
type Fund struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	NetAssetValue decimal.Decimal `db:"net_asset_value" json:"net_asset_value"`
}

// IsPriced reports whether the fund has a usable (strictly positive) NAV.
func (f *Fund) IsPriced() bool {
	return f.NetAssetValue.IsPositive()
}
