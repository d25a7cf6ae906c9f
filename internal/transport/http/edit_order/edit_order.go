package editorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/cart"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/transport/http/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// service is an interface for the service layer.
type service interface {
	EditOrder(ctx context.Context, orderID int64, requester actor.Actor, newLines []cart.Line) (*order.Order, error)
}

// itemInEditOrderRequest represents a line item in an edit order
// request.
type itemInEditOrderRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity"  validate:"gt=0"`
}

// editOrderRequest represents an edit order request. The item set it
// carries replaces the order's items wholesale.
type editOrderRequest struct {
	Items []itemInEditOrderRequest `json:"items" validate:"required,min=1,dive"`
}

// Validate validates the edit order request.
func (r *editOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toLines converts the request items to cart lines.
func (r *editOrderRequest) toLines() []cart.Line {
	lines := make([]cart.Line, len(r.Items))
	for i, item := range r.Items {
		lines[i] = cart.Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	return lines
}

// EditOrder handles the edit order request.
func EditOrder(w http.ResponseWriter, r *http.Request, service service) {
	requester, err := httpx.Requester(r)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	orderID, err := httpx.OrderID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	req := editOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for edit order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for edit order", "error", err)

		return
	}

	o, err := service.EditOrder(r.Context(), orderID, requester, req.toLines())
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error editing order", "error", err, "orderId", orderID)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, o)
}
