package cancelorder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/transport/http/httpx"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	CancelOrder(ctx context.Context, orderID int64, requester actor.Actor, reason string) (*order.Order, error)
}

// cancelOrderRequest represents a cancel order request. The body is
// optional; reason defaults to empty.
type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder handles the cancel order request.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	req := cancelOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for cancel order", "error", err)

		return
	}

	o, err := service.CancelOrder(r.Context(), orderID, requester, req.Reason)
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error cancelling order", "error", err, "orderId", orderID)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, o)
}
