// internal/api/handler/investment.go
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"estocks/internal/api/middleware"
	"estocks/internal/api/types"
	"estocks/internal/domain"
	"estocks/internal/service"
	"estocks/internal/util"
)

// InvestmentHandler handles fund browsing, the invest action and the
// investment ledger.
type InvestmentHandler struct {
	responder
	service  service.InvestmentService
	currency string
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(svc service.InvestmentService, currency, loginURL string, logger *slog.Logger) *InvestmentHandler {
	return &InvestmentHandler{
		responder: responder{logger: logger, loginURL: loginURL},
		service:   svc,
		currency:  currency,
	}
}

// InvestRequest represents the request body for invest.
type InvestRequest struct {
	FundID int64           `json:"fund_id" validate:"required,gt=0"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

func (req InvestRequest) checkMoney() error {
	return checkAmount("amount", req.Amount)
}

// InvestResponse is the receipt returned after a successful invest.
type InvestResponse struct {
	Message      string          `json:"message"`
	InvestmentID int64           `json:"investment_id"`
	FundID       int64           `json:"fund_id"`
	FundName     string          `json:"fund_name"`
	Amount       decimal.Decimal `json:"amount"`
	Units        string          `json:"units"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	BuyDate      time.Time       `json:"buy_date"`
	Maturity     time.Time       `json:"maturity"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}

// Invest handles the invest request.
// POST /api/v1/investments/invest
func (h *InvestmentHandler) Invest(w http.ResponseWriter, r *http.Request) {
	var req InvestRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	receipt, err := h.service.Invest(r.Context(), middleware.Identity(r.Context()), req.FundID, req.Amount)
	if err != nil {
		h.respondInvestError(w, r, err)
		return
	}

	units := receipt.Units.StringFixed(2)
	h.respondWithJSON(w, http.StatusCreated, InvestResponse{
		Message: fmt.Sprintf("Successfully invested %s %s in %s (%s units).",
			h.currency, util.FormatGrouped(receipt.Amount, 0), receipt.FundName, units),
		InvestmentID: receipt.InvestmentID,
		FundID:       receipt.FundID,
		FundName:     receipt.FundName,
		Amount:       receipt.Amount,
		Units:        units,
		BuyPrice:     receipt.BuyPrice,
		BuyDate:      receipt.BuyDate,
		Maturity:     receipt.Maturity,
		NewBalance:   receipt.NewBalance,
	})
}

// respondInvestError words the invest outcomes for the person who tried to invest.
func (h *InvestmentHandler) respondInvestError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case util.IsError(err, util.ErrUnauthenticated):
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{
			"error":     "You must be logged in to invest.",
			"login_url": h.loginURL,
		})
	case util.IsError(err, util.ErrInsufficientFunds):
		h.respondWithJSON(w, http.StatusPaymentRequired, map[string]string{
			"error": "Insufficient wallet balance to invest.",
		})
	case util.IsError(err, util.ErrInvalidFundState), util.IsError(err, util.ErrPersistence):
		h.logger.Error("Invest failed", "error", err, "request_id", chimw.GetReqID(r.Context()))
		h.respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "We could not complete your investment. Please try again later.",
		})
	default:
		h.respondWithError(w, err)
	}
}

// ListFunds handles the list funds request.
// GET /api/v1/funds
func (h *InvestmentHandler) ListFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.service.ListFunds(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": funds})
}

// GetFund handles the get fund request.
// GET /api/v1/funds/{fundID}
func (h *InvestmentHandler) GetFund(w http.ResponseWriter, r *http.Request) {
	fundID, err := parseID(chi.URLParam(r, "fundID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	fund, err := h.service.GetFund(r.Context(), fundID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, fund)
}

// ListInvestments handles the paginated ledger request.
// GET /api/v1/investments
func (h *InvestmentHandler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	investments, total, err := h.service.ListInvestments(r.Context(), limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPage(investments, limit, offset, total))
}

// GetInvestment handles the get investment request.
// GET /api/v1/investments/{investmentID}
func (h *InvestmentHandler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "investmentID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	investment, err := h.service.GetInvestment(r.Context(), id)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, investment)
}

// InvestmentRequest is the body of the ledger create and update requests.
type InvestmentRequest struct {
	FundID   int64           `json:"fund_id" validate:"required,gt=0"`
	UserID   int64           `json:"user_id" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	BuyPrice decimal.Decimal `json:"buy_price" validate:"gt=0"`
	BuyDate  time.Time       `json:"buy_date"`
	Maturity time.Time       `json:"maturity"`
}

func (req InvestmentRequest) checkMoney() error {
	if err := checkAmount("amount", req.Amount); err != nil {
		return err
	}
	return checkAmount("buy_price", req.BuyPrice)
}

func (req InvestmentRequest) toDomain(id int64) *domain.FundInvestment {
	return &domain.FundInvestment{
		ID:       id,
		FundID:   req.FundID,
		UserID:   req.UserID,
		Amount:   req.Amount,
		BuyPrice: req.BuyPrice,
		BuyDate:  req.BuyDate,
		Maturity: req.Maturity,
	}
}

// CreateInvestment handles the ledger create request. The record must belong
// to the caller.
// POST /api/v1/investments
func (h *InvestmentHandler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	var req InvestmentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.UserID != callerID {
		h.respondWithError(w, util.ErrForbidden)
		return
	}
	investment := req.toDomain(0)
	if err := h.service.CreateInvestment(r.Context(), investment); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, investment)
}

// UpdateInvestment handles the ledger update request. Only the caller's own
// records can be edited, and they cannot be handed to another user.
// PUT /api/v1/investments/{investmentID}
func (h *InvestmentHandler) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, callerID, err := h.ownedInvestment(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req InvestmentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.UserID != callerID {
		h.respondWithError(w, util.ErrForbidden)
		return
	}
	investment := req.toDomain(id)
	if err := h.service.UpdateInvestment(r.Context(), investment); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, investment)
}

// DeleteInvestment handles the ledger delete request for one of the caller's records.
// DELETE /api/v1/investments/{investmentID}
func (h *InvestmentHandler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.ownedInvestment(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if err := h.service.DeleteInvestment(r.Context(), id); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedInvestment parses the path id and checks the record belongs to the caller.
func (h *InvestmentHandler) ownedInvestment(r *http.Request) (int64, int64, error) {
	callerID, ok := middleware.UserID(r.Context())
	if !ok {
		return 0, 0, util.ErrUnauthenticated
	}
	id, err := parseID(chi.URLParam(r, "investmentID"))
	if err != nil {
		return 0, 0, err
	}
	existing, err := h.service.GetInvestment(r.Context(), id)
	if err != nil {
		return 0, 0, err
	}
	if existing.UserID != callerID {
		return 0, 0, util.ErrForbidden
	}
	return id, callerID, nil
}

// ListMyPositions handles the caller's portfolio request.
// GET /api/v1/investments/mine
func (h *InvestmentHandler) ListMyPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	positions, err := h.service.ListPositions(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	invested, value := decimal.Zero, decimal.Zero
	for _, p := range positions {
		invested = invested.Add(p.Amount)
		value = value.Add(p.CurrentValue)
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":           positions,
		"total_invested": invested,
		"total_value":    value,
		"gain_loss":      value.Sub(invested),
	})
}
