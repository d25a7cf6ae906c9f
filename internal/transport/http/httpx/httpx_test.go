package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/service/models/product"
	"github.com/stretchr/testify/require"
)

func requestWithIdentity(id, role string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	if id != "" {
		r.Header.Set("X-User-Id", id)
	}
	if role != "" {
		r.Header.Set("X-User-Role", role)
	}

	return r
}

func TestRequester(t *testing.T) {
	t.Parallel()

	a, err := Requester(requestWithIdentity("42", "vendor"))
	require.NoError(t, err)
	require.Equal(t, int64(42), a.ID)
	require.Equal(t, actor.RoleVendor, a.Role)

	_, err = Requester(requestWithIdentity("", "vendor"))
	require.ErrorIs(t, err, ErrMissingIdentity)

	_, err = Requester(requestWithIdentity("42", ""))
	require.ErrorIs(t, err, ErrMissingIdentity)

	_, err = Requester(requestWithIdentity("not-a-number", "vendor"))
	require.ErrorIs(t, err, ErrMissingIdentity)

	_, err = Requester(requestWithIdentity("-1", "vendor"))
	require.ErrorIs(t, err, ErrMissingIdentity)

	_, err = Requester(requestWithIdentity("42", "superuser"))
	require.ErrorIs(t, err, actor.ErrInvalidRole)
}

func TestWriteErrorStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"missing identity", ErrMissingIdentity, http.StatusUnauthorized},
		{"not authorized", order.ErrNotAuthorized, http.StatusForbidden},
		{"order not found", order.ErrNotFound, http.StatusNotFound},
		{"product not found", product.ErrNotFound, http.StatusNotFound},
		{"insufficient stock", &product.InsufficientStockError{ProductID: 1, Requested: 2, Available: 1}, http.StatusConflict},
		{"invalid transition", &order.InvalidTransitionError{From: order.StatusPending, To: order.StatusShipped}, http.StatusConflict},
		{"not editable", order.ErrNotEditable, http.StatusConflict},
		{"empty cart", order.ErrEmptyCart, http.StatusBadRequest},
		{"missing shipping details", order.ErrMissingShippingDetails, http.StatusBadRequest},
		{"invalid status", order.ErrInvalidStatus, http.StatusBadRequest},
		{"invalid role", actor.ErrInvalidRole, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			WriteError(rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body["message"])
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal server error", body["message"])
}

func TestOrderID(t *testing.T) {
	t.Parallel()

	id, err := OrderID("17")
	require.NoError(t, err)
	require.Equal(t, int64(17), id)

	_, err = OrderID("abc")
	require.ErrorIs(t, err, order.ErrNotFound)

	_, err = OrderID("0")
	require.ErrorIs(t, err, order.ErrNotFound)
}
