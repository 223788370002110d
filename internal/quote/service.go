// Package quote serves stock quotes and price history for display. Live data
// comes from Yahoo Finance; when it is unavailable the service answers with
// deterministic synthetic data so the UI never shows an empty quote.
package quote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"estocks/internal/metrics"
	"estocks/internal/util"
)

// Quote sources.
const (
	SourceCache    = "cache"
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// Quote is a point-in-time snapshot of one stock.
type Quote struct {
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"company_name"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        int64           `json:"volume"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Currency      string          `json:"currency"`
	Source        string          `json:"source"`
}

func (q *Quote) fillChange() {
	q.Change = q.CurrentPrice.Sub(q.PreviousClose)
	if q.PreviousClose.IsZero() {
		q.ChangePercent = decimal.Zero
		return
	}
	q.ChangePercent = q.Change.Div(q.PreviousClose).Mul(decimal.NewFromInt(100)).Round(2)
}

// HistoricalPoint is one daily candle.
type HistoricalPoint struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// History is the price series of one symbol over a period.
type History struct {
	Symbol string            `json:"symbol"`
	Period string            `json:"period"`
	Source string            `json:"source"`
	Points []HistoricalPoint `json:"points"`
}

// periodDays maps supported periods to their length in days.
var periodDays = map[string]int{
	"1d":  1,
	"5d":  5,
	"1mo": 30,
	"3mo": 90,
	"6mo": 180,
	"1y":  365,
}

// DefaultPeriod is used when no period is requested.
const DefaultPeriod = "1mo"

// NormalizePeriod returns period if supported and DefaultPeriod otherwise.
func NormalizePeriod(period string) string {
	if _, ok := periodDays[period]; ok {
		return period
	}
	return DefaultPeriod
}

// ChartFetcher is the live data source.
type ChartFetcher interface {
	Chart(ctx context.Context, symbol, rng string) (*ChartResult, error)
}

// Cache stores values of type T by key. *cache.ViewCache satisfies it.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (*T, bool)
	Set(ctx context.Context, key string, value *T)
}

// Service answers quote and history requests.
type Service struct {
	catalog      *Catalog
	fetcher      ChartFetcher
	quoteCache   Cache[Quote]
	historyCache Cache[History]
	currency     string
	concurrency  int
	logger       *slog.Logger
	now          func() time.Time
}

// Options configures a Service. Nil caches disable caching.
type Options struct {
	QuoteCache   Cache[Quote]
	HistoryCache Cache[History]
	Currency     string
	Concurrency  int
}

// NewService creates a Service over catalog and fetcher.
func NewService(catalog *Catalog, fetcher ChartFetcher, opts Options, logger *slog.Logger) *Service {
	if opts.Currency == "" {
		opts.Currency = "PKR"
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Service{
		catalog:      catalog,
		fetcher:      fetcher,
		quoteCache:   opts.QuoteCache,
		historyCache: opts.HistoryCache,
		currency:     opts.Currency,
		concurrency:  opts.Concurrency,
		logger:       logger,
		now:          time.Now,
	}
}

// ListStocks returns every stock in the catalog.
func (s *Service) ListStocks() []Stock {
	return s.catalog.Stocks()
}

// GetQuote returns the latest quote for symbol. Provider failures are logged
// and answered with a synthetic quote.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	stock := s.catalog.Lookup(symbol)
	if stock.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", util.ErrInvalidInput)
	}

	if s.quoteCache != nil {
		if q, ok := s.quoteCache.Get(ctx, stock.Symbol); ok {
			q.Source = SourceCache
			metrics.QuoteRequestsTotal.WithLabelValues(SourceCache).Inc()
			return q, nil
		}
	}

	q, err := s.liveQuote(ctx, stock)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Live quote unavailable, using fallback", "symbol", stock.Symbol, "error", err)
		metrics.QuoteRequestsTotal.WithLabelValues(SourceFallback).Inc()
		return fallbackQuote(stock, s.currency), nil
	}

	metrics.QuoteRequestsTotal.WithLabelValues(SourceLive).Inc()
	if s.quoteCache != nil {
		s.quoteCache.Set(ctx, stock.Symbol, q)
	}
	return q, nil
}

func (s *Service) liveQuote(ctx context.Context, stock Stock) (*Quote, error) {
	res, err := s.fetcher.Chart(ctx, stock.YahooSymbol, "1d")
	if err != nil {
		return nil, err
	}
	meta := res.Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("no market price for %s", stock.YahooSymbol)
	}

	prevClose := meta.PreviousClose
	if prevClose == 0 {
		prevClose = meta.ChartPreviousClose
	}
	currency := meta.Currency
	if currency == "" {
		currency = s.currency
	}

	q := &Quote{
		Symbol:        stock.Symbol,
		CompanyName:   stock.CompanyName,
		CurrentPrice:  price(meta.RegularMarketPrice),
		PreviousClose: price(prevClose),
		High:          price(meta.RegularMarketDayHigh),
		Low:           price(meta.RegularMarketDayLow),
		Volume:        meta.RegularMarketVolume,
		Currency:      currency,
		Source:        SourceLive,
	}
	if candles, err := res.Candles(); err == nil && len(candles) > 0 {
		q.Open = price(candles[len(candles)-1].Open)
	}
	synthesizeDayFields(q)
	q.fillChange()
	return q, nil
}

// GetHistory returns daily candles for symbol over period. Unknown periods
// fall back to DefaultPeriod.
func (s *Service) GetHistory(ctx context.Context, symbol, period string) (*History, error) {
	stock := s.catalog.Lookup(symbol)
	if stock.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", util.ErrInvalidInput)
	}
	period = NormalizePeriod(period)
	key := stock.Symbol + ":" + period

	if s.historyCache != nil {
		if h, ok := s.historyCache.Get(ctx, key); ok {
			h.Source = SourceCache
			return h, nil
		}
	}

	h := &History{Symbol: stock.Symbol, Period: period, Source: SourceLive}
	candles, err := s.liveHistory(ctx, stock, period)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Live history unavailable, using fallback", "symbol", stock.Symbol, "period", period, "error", err)
		h.Source = SourceFallback
		candles = fallbackHistory(stock.Symbol, periodDays[period], s.now().UTC())
	}

	h.Points = make([]HistoricalPoint, len(candles))
	for i, c := range candles {
		h.Points[i] = HistoricalPoint{
			Date:   c.Date,
			Open:   price(c.Open),
			High:   price(c.High),
			Low:    price(c.Low),
			Close:  price(c.Close),
			Volume: c.Volume,
		}
	}

	if h.Source == SourceLive && s.historyCache != nil {
		s.historyCache.Set(ctx, key, h)
	}
	return h, nil
}

func (s *Service) liveHistory(ctx context.Context, stock Stock, period string) ([]Candle, error) {
	res, err := s.fetcher.Chart(ctx, stock.YahooSymbol, period)
	if err != nil {
		return nil, err
	}
	candles, err := res.Candles()
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("empty history for %s", stock.YahooSymbol)
	}
	return candles, nil
}

// GetQuotes fetches quotes for symbols with bounded concurrency. The result
// keeps the order of symbols; blank entries are skipped.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	var wanted []string
	for _, sym := range symbols {
		if sym = strings.TrimSpace(sym); sym != "" {
			wanted = append(wanted, sym)
		}
	}

	quotes := make([]Quote, len(wanted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, sym := range wanted {
		i, sym := i, sym
		g.Go(func() error {
			q, err := s.GetQuote(gctx, sym)
			if err != nil {
				return err
			}
			quotes[i] = *q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}
