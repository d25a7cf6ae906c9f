package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/transport/http/httpx"
	"github.com/go-playground/validator/v10"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, customerID int64, address order.ShippingAddress, method order.PaymentMethod) ([]order.Order, error)
}

// shippingAddressInCreateOrderRequest represents the delivery address in
// a create order request.
type shippingAddressInCreateOrderRequest struct {
	Street  string `json:"street"  validate:"required"`
	City    string `json:"city"    validate:"required"`
	State   string `json:"state"   validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// createOrderRequest represents a create order request. Line items come
// from the requester's server-side cart, not from the body.
type createOrderRequest struct {
	ShippingAddress shippingAddressInCreateOrderRequest `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                              `json:"paymentMethod"   validate:"required"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// CreateOrder handles the checkout request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	requester, err := httpx.Requester(r)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	address := order.ShippingAddress{
		Street:  req.ShippingAddress.Street,
		City:    req.ShippingAddress.City,
		State:   req.ShippingAddress.State,
		ZipCode: req.ShippingAddress.ZipCode,
		Country: req.ShippingAddress.Country,
	}

	orders, err := service.CreateOrder(r.Context(), requester.ID, address, method)
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error creating orders", "error", err)

		return
	}

	httpx.WriteJSON(w, http.StatusCreated, orders)
}
