package listorders

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/transport/http/httpx"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// service is an interface for the service layer.
type service interface {
	ListOrders(ctx context.Context, requester actor.Actor, limit, offset int) ([]order.Order, error)
}

// ListOrders handles the list orders request. Visibility is decided by
// the service from the requester's role.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	requester, err := httpx.Requester(r)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	limit := intQueryParam(r, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := intQueryParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	orders, err := service.ListOrders(r.Context(), requester, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error listing orders", "error", err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, orders)
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
