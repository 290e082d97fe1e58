package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/cartstore/internal/api/dto"
	"github.com/RoyceAzure/lab/cartstore/internal/api/response"
	"github.com/RoyceAzure/lab/cartstore/internal/catalog"
	"github.com/RoyceAzure/lab/cartstore/internal/constants"
	"github.com/RoyceAzure/lab/cartstore/internal/domain/cart"
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/RoyceAzure/lab/cartstore/internal/store"
	"github.com/RoyceAzure/lab/cartstore/internal/util"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SessionProvider is implemented by *session.Manager.
type SessionProvider interface {
	Get(ctx context.Context, sessionID string) (*store.Store, error)
	End(ctx context.Context, sessionID string) error
}

// ProductResolver is implemented by *catalog.Catalog.
type ProductResolver interface {
	List(ctx context.Context) ([]model.Product, error)
	Lookup(ctx context.Context, code string) (*model.Product, error)
	AddRequest(ctx context.Context, code string, quantity int) (model.AddItemRequest, error)
}

type CartHandler struct {
	sessions SessionProvider
	catalog  ProductResolver
	logger   zerolog.Logger
}

func NewCartHandler(sessions SessionProvider, catalog ProductResolver, logger zerolog.Logger) *CartHandler {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	return &CartHandler{
		sessions: sessions,
		catalog:  catalog,
		logger:   logger,
	}
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	sessionID := util.GetSessionIDFromContext(r.Context())
	s, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to open session")
		response.ErrorJSON(w, http.StatusServiceUnavailable, response.CodeUnavailable, "session store unavailable")
		return nil, false
	}
	return s, true
}

// GetCart GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	response.SuccessJSON(w, dto.NewCartDTO(s.State()), "")
}

// AddItem POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body dto.AddItemDTO
	if err := decodeBody(w, r, &body); err != nil {
		writeDecodeError(w, err, "invalid request body")
		return
	}

	var req model.AddItemRequest
	switch {
	case body.ProductCode != "":
		var err error
		req, err = h.catalog.AddRequest(r.Context(), body.ProductCode, body.Quantity)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				response.ErrorJSON(w, http.StatusNotFound, response.CodeNotFound, "product not found")
				return
			}
			h.logger.Error().Err(err).Str("product_code", body.ProductCode).Msg("catalog lookup failed")
			response.ErrorJSON(w, http.StatusServiceUnavailable, response.CodeUnavailable, "catalog unavailable")
			return
		}
	case body.ID != "" && body.Price != nil:
		req = model.AddItemRequest{
			ID:       body.ID,
			Name:     body.Name,
			Price:    *body.Price,
			Quantity: body.Quantity,
		}
	default:
		response.ErrorJSON(w, http.StatusBadRequest, response.CodeBadRequest, "product_code or id and price are required")
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}
	state, res, err := s.AddItem(r.Context(), req)
	h.writeResult(w, state, res, err)
}

// UpdateQuantity PUT /cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var body dto.UpdateQuantityDTO
	if err := decodeBody(w, r, &body); err != nil || body.Quantity == nil {
		writeDecodeError(w, err, "quantity is required")
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}
	state, res, err := s.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), *body.Quantity)
	h.writeResult(w, state, res, err)
}

// RemoveItem DELETE /cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	state, res, err := s.RemoveItem(r.Context(), chi.URLParam(r, "id"))
	h.writeResult(w, state, res, err)
}

// ClearCart DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	state, res, err := s.ClearCart(r.Context())
	h.writeResult(w, state, res, err)
}

// EndSession DELETE /session
func (h *CartHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := util.GetSessionIDFromContext(r.Context())
	if err := h.sessions.End(r.Context(), sessionID); err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to end session")
		response.ErrorJSON(w, http.StatusServiceUnavailable, response.CodeUnavailable, "session store unavailable")
		return
	}

	w.Header().Del(constants.SessionIDHeader)
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	response.SuccessJSON(w, dto.NewCartDTO(model.EmptyCart()), "session ended")
}

func (h *CartHandler) writeResult(w http.ResponseWriter, state model.CartState, res cart.Result, err error) {
	if err != nil {
		var outErr *cart.OutcomeError
		switch {
		case errors.As(err, &outErr):
			w.Header().Set(constants.CartOutcomeHeader, outErr.Outcome.String())
			response.ErrorJSON(w, http.StatusUnprocessableEntity, outErr.Outcome.String(), outErr.Err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			response.ErrorJSON(w, http.StatusServiceUnavailable, response.CodeUnavailable, "request canceled")
		default:
			h.logger.Error().Err(err).Msg("cart command failed")
			response.ErrorJSON(w, http.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
		}
		return
	}

	w.Header().Set(constants.CartOutcomeHeader, res.Outcome.String())
	response.SuccessJSON(w, dto.NewCartDTO(state), res.Outcome.String())
}

// 請求 body 上限
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.ErrorJSON(w, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "request body too large")
		return
	}
	response.ErrorJSON(w, http.StatusBadRequest, response.CodeBadRequest, msg)
}
