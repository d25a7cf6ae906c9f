package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/fluxmart/order/internal/service/models/currency"
	"github.com/fluxmart/order/internal/service/models/orderitem"
)

// PaymentMethod is fixed to cash on delivery in this marketplace.
type PaymentMethod string

const PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"

var ErrInvalidPaymentMethod = errors.New("invalid payment method")

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch s {
	case string(PaymentMethodCashOnDelivery):
		return PaymentMethodCashOnDelivery, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

func (m PaymentMethod) String() string {
	return string(m)
}

// ShippingAddress is the destination supplied by the customer at
// checkout.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// ShippingDetails carries the tracking information required to move an
// order into the shipped status.
type ShippingDetails struct {
	TrackingNumber        string    `json:"trackingNumber"`
	Courier               string    `json:"courier"`
	EstimatedDeliveryDate time.Time `json:"estimatedDeliveryDate"`
}

func (d ShippingDetails) complete() bool {
	return d.TrackingNumber != "" && d.Courier != "" && !d.EstimatedDeliveryDate.IsZero()
}

// Order is the aggregate root of the order lifecycle. Status owns the
// progression; the IsPaid/IsShipped/IsDelivered/IsRefunded flags and
// their timestamps are derived from it inside Transition and must never
// be written by any other code path.
type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customerId"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`

	ItemsPriceCents    int64             `json:"itemsPriceCents"`
	ShippingPriceCents int64             `json:"shippingPriceCents"`
	TaxPriceCents      int64             `json:"taxPriceCents"`
	TotalPriceCents    int64             `json:"totalPriceCents"`
	PriceCurrency      currency.Currency `json:"priceCurrency"`

	Status Status `json:"status"`

	IsPaid      bool       `json:"isPaid"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	IsShipped   bool       `json:"isShipped"`
	ShippedAt   *time.Time `json:"shippedAt,omitempty"`
	IsDelivered bool       `json:"isDelivered"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	IsRefunded  bool       `json:"isRefunded"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`

	CancellationReason string     `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`

	TrackingNumber        string     `json:"trackingNumber,omitempty"`
	Courier               string     `json:"courier,omitempty"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OrderItems []orderitem.OrderItem `json:"orderItems"`
}

// Transition moves the order to the given status after validating the
// move against the state machine, then re-derives the flag projection.
// Re-entering the current status is rejected so entry side effects can
// never be applied twice.
func (o *Order) Transition(to Status, now time.Time) error {
	if !o.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}

	o.Status = to
	o.syncFlags(now)

	return nil
}

// syncFlags recomputes the projected flags and their timestamps from the
// current status.
func (o *Order) syncFlags(now time.Time) {
	switch o.Status {
	case StatusPending, StatusAccepted, StatusProcessing:
		o.IsShipped = false
		o.ShippedAt = nil
		o.IsDelivered = false
		o.DeliveredAt = nil

	case StatusShipped:
		o.IsShipped = true
		if o.ShippedAt == nil {
			t := now
			o.ShippedAt = &t
		}
		o.IsDelivered = false
		o.DeliveredAt = nil

	case StatusDelivered:
		o.IsShipped = true
		if o.ShippedAt == nil {
			t := now
			o.ShippedAt = &t
		}
		o.IsDelivered = true
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}

	case StatusCancelled:
		o.IsShipped = false
		o.ShippedAt = nil
		o.IsDelivered = false
		o.DeliveredAt = nil

		// A paid order keeps a refund record; either way it ends unpaid.
		if o.IsPaid {
			o.IsRefunded = true
			if o.RefundedAt == nil {
				t := now
				o.RefundedAt = &t
			}
		}
		o.IsPaid = false
		o.PaidAt = nil

		if o.CancelledAt == nil {
			t := now
			o.CancelledAt = &t
		}
	}

	o.UpdatedAt = now
}

// Ship records the tracking details and transitions to shipped.
func (o *Order) Ship(details ShippingDetails, now time.Time) error {
	if !details.complete() {
		return ErrMissingShippingDetails
	}
	if err := o.Transition(StatusShipped, now); err != nil {
		return err
	}

	o.TrackingNumber = details.TrackingNumber
	o.Courier = details.Courier
	t := details.EstimatedDeliveryDate
	o.EstimatedDeliveryDate = &t

	return nil
}

// Cancel transitions the order to cancelled and records the reason.
// Shipped and delivered orders cannot be cancelled.
func (o *Order) Cancel(reason string, now time.Time) error {
	if err := o.Transition(StatusCancelled, now); err != nil {
		return err
	}

	o.CancellationReason = reason

	return nil
}

// TogglePayment flips the orthogonal payment flag. Cancelled orders can
// never be marked paid again.
func (o *Order) TogglePayment(now time.Time) error {
	if o.Status == StatusCancelled {
		return &InvalidTransitionError{From: o.Status, To: o.Status}
	}

	o.IsPaid = !o.IsPaid
	if o.IsPaid {
		t := now
		o.PaidAt = &t
	} else {
		o.PaidAt = nil
	}
	o.UpdatedAt = now

	return nil
}

// CanBeEdited reports whether the customer may still change line items.
func (o *Order) CanBeEdited() bool {
	return o.Status == StatusPending && !o.IsPaid && !o.IsShipped
}

// CanBeCancelled reports whether the standard cancel operation applies.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case StatusPending, StatusAccepted, StatusProcessing:
		return !o.IsShipped
	default:
		return false
	}
}

// SetItems replaces the line items and recomputes all money fields from
// them. The shipping price is policy-fixed at creation and carried over.
func (o *Order) SetItems(items []orderitem.OrderItem, now time.Time) {
	o.OrderItems = items

	var itemsPrice int64
	for _, item := range items {
		itemsPrice += item.PriceCents * int64(item.Quantity)
	}
	o.ItemsPriceCents = itemsPrice
	o.TaxPriceCents = itemsPrice / 10
	o.TotalPriceCents = o.ItemsPriceCents + o.ShippingPriceCents + o.TaxPriceCents
	o.UpdatedAt = now
}

// HasVendor reports whether the given vendor owns at least one line item.
func (o *Order) HasVendor(vendorID int64) bool {
	for _, item := range o.OrderItems {
		if item.VendorID == vendorID {
			return true
		}
	}

	return false
}

// Inconsistencies lists every way the stored flags disagree with the
// status they are supposed to be derived from. A healthy order returns
// an empty slice.
func (o *Order) Inconsistencies() []string {
	var issues []string

	if o.Status == StatusDelivered && !o.IsDelivered {
		issues = append(issues, "status is delivered but isDelivered is false")
	}
	if o.IsDelivered && o.Status != StatusDelivered {
		issues = append(issues, fmt.Sprintf("isDelivered is true but status is %s", o.Status))
	}

	shippedStatus := o.Status == StatusShipped || o.Status == StatusDelivered
	if shippedStatus && !o.IsShipped {
		issues = append(issues, fmt.Sprintf("status is %s but isShipped is false", o.Status))
	}
	if o.IsShipped && !shippedStatus {
		issues = append(issues, fmt.Sprintf("isShipped is true but status is %s", o.Status))
	}

	if o.Status == StatusCancelled && (o.IsShipped || o.IsDelivered || o.IsPaid) {
		issues = append(issues, "cancelled order has active flags")
	}

	if o.TotalPriceCents != o.ItemsPriceCents+o.ShippingPriceCents+o.TaxPriceCents {
		issues = append(issues, "total price does not equal items + shipping + tax")
	}

	return issues
}

// Normalize re-derives the flag projection and the total from the
// current status without validating a transition. It exists for the
// consistency auditor's repair pass only.
func (o *Order) Normalize(now time.Time) {
	o.syncFlags(now)
	o.TotalPriceCents = o.ItemsPriceCents + o.ShippingPriceCents + o.TaxPriceCents
}
