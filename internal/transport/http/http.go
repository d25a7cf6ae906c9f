package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fluxmart/order/internal/service/models/actor"
	"github.com/fluxmart/order/internal/service/models/cart"
	"github.com/fluxmart/order/internal/service/models/order"
	"github.com/fluxmart/order/internal/service/services/auditsvc"
	advancestatus "github.com/fluxmart/order/internal/transport/http/advance_status"
	auditorders "github.com/fluxmart/order/internal/transport/http/audit_orders"
	cancelorder "github.com/fluxmart/order/internal/transport/http/cancel_order"
	createorder "github.com/fluxmart/order/internal/transport/http/create_order"
	editorder "github.com/fluxmart/order/internal/transport/http/edit_order"
	getorder "github.com/fluxmart/order/internal/transport/http/get_order"
	listorders "github.com/fluxmart/order/internal/transport/http/list_orders"
	togglepayment "github.com/fluxmart/order/internal/transport/http/toggle_payment"
	"github.com/fluxmart/order/pkg/http/middleware/trace"
	"github.com/fluxmart/order/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type orderService interface {
	CreateOrder(ctx context.Context, customerID int64, address order.ShippingAddress, method order.PaymentMethod) ([]order.Order, error)
	EditOrder(ctx context.Context, orderID int64, requester actor.Actor, newLines []cart.Line) (*order.Order, error)
	CancelOrder(ctx context.Context, orderID int64, requester actor.Actor, reason string) (*order.Order, error)
	AdvanceStatus(ctx context.Context, orderID int64, requester actor.Actor, newStatus order.Status, details *order.ShippingDetails) (*order.Order, error)
	TogglePayment(ctx context.Context, orderID int64, requester actor.Actor) (*order.Order, error)
	GetOrder(ctx context.Context, orderID int64, requester actor.Actor) (*order.Order, error)
	ListOrders(ctx context.Context, requester actor.Actor, limit, offset int) ([]order.Order, error)
}

type auditService interface {
	FindInconsistent(ctx context.Context) ([]auditsvc.Finding, error)
	Repair(ctx context.Context) ([]auditsvc.Finding, error)
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	orders  orderService
	auditor auditService
}

func NewHTTPTransport(orders orderService, auditor auditService) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		orders:  orders,
		auditor: auditor,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)

			r.Post("/audit", h.auditReport)
			r.Post("/audit/repair", h.auditRepair)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getOrder)
				r.Put("/", h.editOrder)
				r.Put("/cancel", h.cancelOrder)
				r.Put("/status", h.advanceStatus)
				r.Put("/pay", h.togglePayment)
			})
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orders)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orders)
}

func (h *HTTPTransport) editOrder(w http.ResponseWriter, r *http.Request) {
	editorder.EditOrder(w, r, h.orders)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.orders)
}

func (h *HTTPTransport) advanceStatus(w http.ResponseWriter, r *http.Request) {
	advancestatus.AdvanceStatus(w, r, h.orders)
}

func (h *HTTPTransport) togglePayment(w http.ResponseWriter, r *http.Request) {
	togglepayment.TogglePayment(w, r, h.orders)
}

func (h *HTTPTransport) auditReport(w http.ResponseWriter, r *http.Request) {
	auditorders.Report(w, r, h.auditor)
}

func (h *HTTPTransport) auditRepair(w http.ResponseWriter, r *http.Request) {
	auditorders.Repair(w, r, h.auditor)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
