package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/core/service"
	"github.com/agrimart/agrimart/pkg/metrics"
)

type Handler struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	orders  *service.OrderService
	catalog *service.CatalogService
	auth    *service.AuthService
	detect  *service.DetectionService
}

func New(
	log *slog.Logger,
	m *metrics.Metrics,
	orders *service.OrderService,
	catalog *service.CatalogService,
	auth *service.AuthService,
	detect *service.DetectionService,
) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{log: log, metrics: m, orders: orders, catalog: catalog, auth: auth, detect: detect}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.observe)

	r.Get("/health", h.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Post("/detect", h.diagnose)

		r.Group(func(r chi.Router) {
			r.Use(h.authRequired)

			r.Get("/auth/me", h.me)

			r.Post("/orders", h.placeOrder)
			r.Get("/orders", h.listAllOrders)
			r.Get("/orders/myorders", h.myOrders)
			r.Get("/orders/{id}", h.getOrder)
			r.Put("/orders/{id}", h.updateOrderStatus)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", h.listUsers)
				r.Delete("/users/{id}", h.deleteUser)
				r.Post("/products", h.createProduct)
				r.Put("/products/{id}", h.updateProduct)
				r.Delete("/products/{id}", h.deleteProduct)
				r.Get("/orders", h.listAllOrders)
				r.Delete("/orders/{id}", h.deleteOrder)
				r.Put("/orders/{id}/payment", h.updatePaymentStatus)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeServiceError maps domain errors onto HTTP statuses. Unexpected
// errors become an opaque 500; their detail stays in the server log.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest, "ValidationError"
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "InsufficientStock"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, "DuplicateRequest"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "EmailTaken"
	}
	return http.StatusInternalServerError, "ServerError"
}
