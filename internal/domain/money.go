// internal/domain/money.go
package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places kept by the NUMERIC(20, 4)
// money columns.
const MoneyScale = 4

// MaxAmount is the exclusive upper bound of a NUMERIC(20, 4) value.
var MaxAmount = decimal.New(1, 20-MoneyScale)

// ValidAmount reports whether d is positive, below MaxAmount and storable
// without rounding. 10.50 is valid, 10.00005 is not.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(MaxAmount) && d.Equal(d.Round(MoneyScale))
}
