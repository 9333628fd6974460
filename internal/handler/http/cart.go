package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/electroshop/internal/cart"
	apperrors "github.com/utafrali/electroshop/pkg/errors"
	"github.com/utafrali/electroshop/pkg/httputil"
)

const maxCartBodyBytes = 64 << 10

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	sessions *cart.Sessions
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(sessions *cart.Sessions, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, store.Snapshot())
}

// AddItem handles POST /api/v1/cart/items. The body is any product-like
// JSON object; it is normalized before it reaches the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var product map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxCartBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&product); err != nil || product == nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("request body must be a JSON object"), h.logger)
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.AddToCart(r.Context(), product); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, store.Snapshot())
}

// IncreaseItem handles POST /api/v1/cart/items/{id}/increase
func (h *CartHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, (*cart.Store).IncreaseQuantity)
}

// DecreaseItem handles POST /api/v1/cart/items/{id}/decrease
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, (*cart.Store).DecreaseQuantity)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, (*cart.Store).RemoveFromCart)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.ClearCart(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, store.Snapshot())
}

// EndSession handles POST /api/v1/cart/session/end. The in-memory cart is
// dropped; the persisted copy stays so the next request rehydrates it.
func (h *CartHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(sessionIDFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

type itemOp func(s *cart.Store, ctx context.Context, id string) error

func (h *CartHandler) withItem(w http.ResponseWriter, r *http.Request, op itemOp) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("item id is required"), h.logger)
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := op(store, r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, store.Snapshot())
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	store, err := h.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return store, true
}
