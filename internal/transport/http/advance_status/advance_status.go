package advancestatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/transport/http/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// service is an interface for the service layer.
type service interface {
	AdvanceStatus(ctx context.Context, orderID int64, requester actor.Actor, newStatus order.Status, details *order.ShippingDetails) (*order.Order, error)
}

// shippingDetailsInAdvanceStatusRequest carries the tracking information
// required when moving an order to shipped.
type shippingDetailsInAdvanceStatusRequest struct {
	TrackingNumber        string    `json:"trackingNumber"        validate:"required"`
	Courier               string    `json:"courier"               validate:"required"`
	EstimatedDeliveryDate time.Time `json:"estimatedDeliveryDate" validate:"required"`
}

// advanceStatusRequest represents an advance status request.
type advanceStatusRequest struct {
	Status          string                                 `json:"status" validate:"required"`
	ShippingDetails *shippingDetailsInAdvanceStatusRequest `json:"shippingDetails,omitempty"`
}

// Validate validates the advance status request.
func (r *advanceStatusRequest) Validate() error {
	return validator.New().Struct(r)
}

// AdvanceStatus handles the advance status request.
func AdvanceStatus(w http.ResponseWriter, r *http.Request, service service) {
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

	req := advanceStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for advance status", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for advance status", "error", err)

		return
	}

	newStatus, err := order.ParseStatus(req.Status)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	var details *order.ShippingDetails
	if req.ShippingDetails != nil {
		details = &order.ShippingDetails{
			TrackingNumber:        req.ShippingDetails.TrackingNumber,
			Courier:               req.ShippingDetails.Courier,
			EstimatedDeliveryDate: req.ShippingDetails.EstimatedDeliveryDate,
		}
	}

	o, err := service.AdvanceStatus(r.Context(), orderID, requester, newStatus, details)
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error advancing order status", "error", err, "orderId", orderID, "status", req.Status)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, o)
}
