package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/currency"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/service/models/product"
)

const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

// ErrMissingIdentity indicates the auth gateway did not forward the
// requester's identity headers.
var ErrMissingIdentity = errors.New("missing requester identity")

// Requester extracts the authenticated actor forwarded by the auth
// gateway.
func Requester(r *http.Request) (actor.Actor, error) {
	idStr := r.Header.Get(headerUserID)
	roleStr := r.Header.Get(headerUserRole)
	if idStr == "" || roleStr == "" {
		return actor.Actor{}, ErrMissingIdentity
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return actor.Actor{}, ErrMissingIdentity
	}

	role, err := actor.ParseRole(roleStr)
	if err != nil {
		return actor.Actor{}, err
	}

	return actor.Actor{ID: id, Role: role}, nil
}

// WriteJSON sends v as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// WriteError maps a domain error to its HTTP status and sends a JSON
// message the UI can show as-is. Unrecognized errors become an opaque
// 500.
func WriteError(w http.ResponseWriter, err error) {
	var (
		insufficientStock *product.InsufficientStockError
		invalidTransition *order.InvalidTransitionError
	)

	switch {
	case errors.Is(err, ErrMissingIdentity):
		WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: err.Error()})

	case errors.Is(err, order.ErrNotAuthorized):
		WriteJSON(w, http.StatusForbidden, messageResponse{Message: err.Error()})

	case errors.Is(err, order.ErrNotFound), errors.Is(err, product.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, messageResponse{Message: err.Error()})

	case errors.As(err, &insufficientStock),
		errors.As(err, &invalidTransition),
		errors.Is(err, order.ErrNotEditable):
		WriteJSON(w, http.StatusConflict, messageResponse{Message: err.Error()})

	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrMissingShippingDetails),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, actor.ErrInvalidRole),
		errors.Is(err, currency.ErrInvalidCurrency):
		WriteJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})

	default:
		slog.Error("Unhandled error in HTTP layer", "error", err)
		WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal server error"})
	}
}

// OrderID parses the {id} route parameter value.
func OrderID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, order.ErrNotFound
	}

	return id, nil
}
