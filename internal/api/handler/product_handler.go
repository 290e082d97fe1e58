package handler

import (
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/cartstore/internal/api/dto"
	"github.com/RoyceAzure/lab/cartstore/internal/api/response"
	"github.com/RoyceAzure/lab/cartstore/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type ProductHandler struct {
	catalog ProductResolver
	logger  zerolog.Logger
}

func NewProductHandler(catalog ProductResolver, logger zerolog.Logger) *ProductHandler {
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	return &ProductHandler{catalog: catalog, logger: logger}
}

// ListProducts GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list products")
		response.ErrorJSON(w, http.StatusServiceUnavailable, response.CodeUnavailable, "catalog unavailable")
		return
	}
	response.SuccessJSON(w, dto.NewProductDTOs(products), "")
}

// GetProduct GET /products/{code}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	p, err := h.catalog.Lookup(r.Context(), code)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			response.ErrorJSON(w, http.StatusNotFound, response.CodeNotFound, "product not found")
			return
		}
		h.logger.Error().Err(err).Str("product_code", code).Msg("catalog lookup failed")
		response.ErrorJSON(w, http.StatusServiceUnavailable, response.CodeUnavailable, "catalog unavailable")
		return
	}
	response.SuccessJSON(w, dto.NewProductDTO(*p), "")
}
