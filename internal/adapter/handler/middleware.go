package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/agrimart/agrimart/internal/core/service"
)

type identityKey struct{}

// authRequired verifies the bearer token and attaches the caller
// identity to the request context. Role decisions happen in the
// services, never here.
func (h *Handler) authRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		caller, err := h.auth.Verify(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(r *http.Request) service.Identity {
	caller, _ := r.Context().Value(identityKey{}).(service.Identity)
	return caller
}

// observe logs each request and records prometheus request metrics.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}

		if h.metrics != nil {
			h.metrics.Requests.WithLabelValues(pattern, http.StatusText(ww.Status())).Inc()
			h.metrics.LatencyMS.WithLabelValues(pattern).Observe(float64(elapsed.Milliseconds()))
		}
		h.log.Info("request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration_ms", elapsed.Milliseconds())
	})
}
