package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/core/service"
)

type placeOrderRequest struct {
	Products []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"products"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json body")
		return
	}

	lines := make([]service.CartLine, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, service.CartLine{ProductID: p.Product, Quantity: p.Quantity})
	}

	caller := callerFrom(r)
	order, err := h.orders.PlaceOrder(r.Context(), caller.UserID, lines,
		req.ShippingAddress, req.PaymentMethod, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

type updateStatusRequest struct {
	Status            string `json:"status"`
	TrackingNumber    string `json:"trackingNumber"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json body")
		return
	}

	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "ValidationError", "unknown order status: "+req.Status)
		return
	}

	change := service.StatusChange{Status: status, TrackingNumber: req.TrackingNumber}
	if req.EstimatedDelivery != "" {
		eta, err := time.Parse(time.RFC3339, req.EstimatedDelivery)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "estimatedDelivery must be RFC 3339")
			return
		}
		change.EstimatedDelivery = &eta
	}

	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), change, callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"), callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	orders, err := h.orders.ListOrdersForUser(r.Context(), caller.UserID, caller)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context(), callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), chi.URLParam(r, "id"), callerFrom(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

func (h *Handler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json body")
		return
	}

	status, ok := domain.ParsePaymentStatus(req.PaymentStatus)
	if !ok {
		writeError(w, http.StatusBadRequest, "ValidationError", "unknown payment status: "+req.PaymentStatus)
		return
	}

	order, err := h.orders.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), status, callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
