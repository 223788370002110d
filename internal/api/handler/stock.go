// internal/api/handler/stock.go
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"estocks/internal/quote"
	"estocks/internal/util"
)

// maxQuoteSymbols caps one multi-quote request.
const maxQuoteSymbols = 25

// QuoteService is the subset of quote.Service the handler needs.
type QuoteService interface {
	ListStocks() []quote.Stock
	GetQuote(ctx context.Context, symbol string) (*quote.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) ([]quote.Quote, error)
	GetHistory(ctx context.Context, symbol, period string) (*quote.History, error)
}

// StockHandler serves stock quotes.
type StockHandler struct {
	responder
	quotes QuoteService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(quotes QuoteService, logger *slog.Logger) *StockHandler {
	return &StockHandler{responder: responder{logger: logger}, quotes: quotes}
}

// ListStocks handles the available stocks request.
// GET /api/v1/stocks
func (h *StockHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": h.quotes.ListStocks()})
}

// GetQuote handles the single quote request.
// GET /api/v1/stocks/{symbol}/quote
func (h *StockHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.quotes.GetQuote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, q)
}

// GetQuotes handles the multi quote request.
// GET /api/v1/stocks/quotes?symbols=OGDC,HBL
func (h *StockHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
	if len(symbols) > maxQuoteSymbols {
		h.respondWithError(w, fmt.Errorf("%w: at most %d symbols per request", util.ErrInvalidInput, maxQuoteSymbols))
		return
	}
	quotes, err := h.quotes.GetQuotes(r.Context(), symbols)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if len(quotes) == 0 {
		h.respondWithError(w, fmt.Errorf("%w: symbols is required", util.ErrInvalidInput))
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": quotes})
}

// GetHistory handles the price history request.
// GET /api/v1/stocks/{symbol}/history?period=1mo
func (h *StockHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.quotes.GetHistory(r.Context(), chi.URLParam(r, "symbol"), r.URL.Query().Get("period"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, history)
}
