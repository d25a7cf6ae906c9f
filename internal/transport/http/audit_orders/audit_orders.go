package auditorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/service/services/auditsvc"
	"github.com/fluxmart/order/internal/transport/http/httpx"
)

// service is an interface for the service layer.
type service interface {
	FindInconsistent(ctx context.Context) ([]auditsvc.Finding, error)
	Repair(ctx context.Context) ([]auditsvc.Finding, error)
}

// auditResponse represents an audit report.
type auditResponse struct {
	Findings []auditsvc.Finding `json:"findings"`
	Count    int                `json:"count"`
}

// Report handles the audit report request. Admin only.
func Report(w http.ResponseWriter, r *http.Request, service service) {
	requester, err := httpx.Requester(r)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}
	if !requester.IsAdmin() {
		httpx.WriteError(w, order.ErrNotAuthorized)

		return
	}

	findings, err := service.FindInconsistent(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error auditing orders", "error", err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, auditResponse{Findings: findings, Count: len(findings)})
}

// Repair handles the audit repair request. Admin only.
func Repair(w http.ResponseWriter, r *http.Request, service service) {
	requester, err := httpx.Requester(r)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}
	if !requester.IsAdmin() {
		httpx.WriteError(w, order.ErrNotAuthorized)

		return
	}

	findings, err := service.Repair(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error repairing orders", "error", err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, auditResponse{Findings: findings, Count: len(findings)})
}
