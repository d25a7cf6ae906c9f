package togglepayment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/transport/http/httpx"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	TogglePayment(ctx context.Context, orderID int64, requester actor.Actor) (*order.Order, error)
}

// TogglePayment handles the toggle payment request.
func TogglePayment(w http.ResponseWriter, r *http.Request, service service) {
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

	o, err := service.TogglePayment(r.Context(), orderID, requester)
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error toggling order payment", "error", err, "orderId", orderID)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, o)
}
