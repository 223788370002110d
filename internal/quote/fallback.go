package quote

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// symbolRand returns a generator seeded from symbol, so the same symbol always
// produces the same synthetic numbers.
func symbolRand(symbol string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func price(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// fallbackQuote synthesizes a plausible quote around a base price in [50, 200).
func fallbackQuote(stock Stock, currency string) *Quote {
	r := symbolRand(stock.Symbol)
	base := float64(50 + r.Intn(150))
	change := r.Float64()*10 - 5

	q := &Quote{
		Symbol:        stock.Symbol,
		CompanyName:   stock.CompanyName,
		CurrentPrice:  price(base + change),
		PreviousClose: price(base),
		Open:          price(base + r.Float64()*2 - 1),
		High:          price(base + r.Float64()*5),
		Low:           price(base - r.Float64()*5),
		Volume:        500000 + r.Int63n(4500000),
		Currency:      currency,
		Source:        SourceFallback,
	}
	q.fillChange()
	return q
}

// synthesizeDayFields fills open, high, low and volume that the provider left
// empty, staying within 1% of the current price.
func synthesizeDayFields(q *Quote) {
	if !q.CurrentPrice.IsPositive() {
		return
	}
	if q.Open.IsPositive() && q.High.IsPositive() && q.Low.IsPositive() {
		return
	}
	r := symbolRand(q.Symbol)
	p := q.CurrentPrice.InexactFloat64()
	if !q.Open.IsPositive() {
		q.Open = q.CurrentPrice
	}
	if !q.High.IsPositive() {
		q.High = price(p * (1 + r.Float64()*0.01))
	}
	if !q.Low.IsPositive() {
		q.Low = price(p * (1 - r.Float64()*0.01))
	}
	if q.Volume == 0 {
		q.Volume = 1000 + r.Int63n(49000)
	}
}

// fallbackHistory is a random walk of days+1 daily candles ending at now.
func fallbackHistory(symbol string, days int, now time.Time) []Candle {
	r := symbolRand(symbol)
	base := float64(50 + r.Intn(150))

	candles := make([]Candle, 0, days+1)
	for i := days; i >= 0; i-- {
		closePrice := base + r.Float64()*10 - 5
		candles = append(candles, Candle{
			Date:   now.AddDate(0, 0, -i),
			Open:   closePrice - r.Float64()*2,
			High:   closePrice + r.Float64()*3,
			Low:    closePrice - r.Float64()*3,
			Close:  closePrice,
			Volume: 500000 + r.Int63n(4500000),
		})
		base = closePrice
	}
	return candles
}
