// internal/api/handler/response.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"estocks/internal/domain"
	"estocks/internal/util"
)

// DefaultTimeout bounds every request served by the router.
const DefaultTimeout = 30 * time.Second

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Lets numeric tags such as gt=0 apply to decimal fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// responder carries the helpers shared by all handlers.
type responder struct {
	logger   *slog.Logger
	loginURL string
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"
	payload := map[string]interface{}{}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		statusCode = http.StatusBadRequest
		message = "Invalid request data"
		payload["details"] = validationDetails(verrs)
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrUnauthenticated):
		statusCode = http.StatusUnauthorized
		message = "You must be logged in."
		payload["login_url"] = h.loginURL
	case util.IsError(err, util.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		message = "Invalid username or password"
	case util.IsError(err, util.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "You may only manage your own investments."
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient wallet balance"
	case util.IsError(err, util.ErrFundNotFound):
		statusCode = http.StatusNotFound
		message = "Fund not found."
	case util.IsError(err, util.ErrWalletNotFound):
		statusCode = http.StatusNotFound
		message = "No wallet exists for this account."
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrUserNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrDuplicateEntry):
		statusCode = http.StatusConflict
		message = "Resource already exists"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	payload["error"] = message
	h.respondWithJSON(w, statusCode, payload)
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func validationDetails(verrs validator.ValidationErrors) []fieldError {
	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "alphanum":
		return "Only letters and digits are allowed"
	default:
		return "Invalid value"
	}
}

// moneyRequest is implemented by request bodies carrying money values.
type moneyRequest interface {
	checkMoney() error
}

// decodeAndValidate reads a JSON body into dst, checks its validate tags and,
// for money requests, that every amount fits the money columns exactly.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return util.ErrInvalidInput
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	if m, ok := dst.(moneyRequest); ok {
		return m.checkMoney()
	}
	return nil
}

// checkAmount rejects values the NUMERIC(20, 4) columns would round or overflow.
func checkAmount(field string, d decimal.Decimal) error {
	if !domain.ValidAmount(d) {
		return fmt.Errorf("%w: %s must be below %s with at most %d decimal places",
			util.ErrInvalidInput, field, domain.MaxAmount, domain.MoneyScale)
	}
	return nil
}

// parseID parses a positive int64 path or query value.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, util.ErrInvalidInput
	}
	return id, nil
}

// pagination parses limit and offset, defaulting to 10 and 0.
func pagination(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10 // Default limit
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}
	return limit, offset
}
