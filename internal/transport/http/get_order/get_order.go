package getorder

import (
	"context"
	"net/http"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/transport/http/httpx"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	GetOrder(ctx context.Context, orderID int64, requester actor.Actor) (*order.Order, error)
}

// GetOrder handles the get order request.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	o, err := service.GetOrder(r.Context(), orderID, requester)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, o)
}
