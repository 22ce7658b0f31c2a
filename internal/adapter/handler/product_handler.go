package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/agrimart/agrimart/internal/core/domain"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Search: q.Get("search"),
		SortBy: q.Get("sortBy"),
	}
	if cats := q.Get("categories"); cats != "" {
		filter.Categories = strings.Split(cats, ",")
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

func (req *productRequest) toDomain() *domain.Product {
	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json body")
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), req.toDomain(), callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json body")
		return
	}

	p := req.toDomain()
	p.ID = chi.URLParam(r, "id")
	updated, err := h.catalog.UpdateProduct(r.Context(), p, callerFrom(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id"), callerFrom(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
