// internal/api/handler/wallet.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"estocks/internal/api/middleware"
	"estocks/internal/service"
	"estocks/internal/util"
)

// WalletHandler handles registration, login and the caller's wallet.
type WalletHandler struct {
	responder
	service    service.AccountService
	cookieName string
	secure     bool
}

// NewWalletHandler creates a new WalletHandler. secureCookies marks the
// session cookie Secure and should be set outside local development.
func NewWalletHandler(svc service.AccountService, cookieName string, secureCookies bool, loginURL string, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		responder:  responder{logger: logger, loginURL: loginURL},
		service:    svc,
		cookieName: cookieName,
		secure:     secureCookies,
	}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register handles the sign-up request.
// POST /api/v1/auth/register
func (h *WalletHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	user, wallet, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Registration successful",
		"user":      user,
		"wallet_id": wallet.ID,
		"balance":   wallet.Balance,
	})
}

// Login handles the login request and sets the session cookie.
// POST /api/v1/auth/login
func (h *WalletHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, util.ErrInvalidCredentials)
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.Expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":      session.Token,
		"expires_at": session.Expires,
		"user":       session.User,
	})
}

// Logout clears the session cookie.
// POST /api/v1/auth/logout
func (h *WalletHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// GetWallet handles the get wallet balance request.
// GET /api/v1/wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"wallet_id":    wallet.ID,
		"balance":      wallet.Balance,
		"last_updated": wallet.LastUpdated,
	})
}

// DepositRequest represents the request body for deposit.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

func (req DepositRequest) checkMoney() error {
	return checkAmount("amount", req.Amount)
}

// Deposit handles the deposit money request.
// POST /api/v1/wallet/deposit
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}

	var req DepositRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	wallet, err := h.service.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Deposit successful",
		"wallet_id":   wallet.ID,
		"new_balance": wallet.Balance,
	})
}
