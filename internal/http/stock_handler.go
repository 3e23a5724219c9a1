package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type StockHandler struct {
	timeout time.Duration
}

func NewStockHandler(timeout time.Duration) *StockHandler {
	return &StockHandler{timeout: timeout}
}

// ValidateCart checks every cart line against fresh stock. The checkout
// button stays disabled while the result is not valid.
func (h *StockHandler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	c, err := ws.CurrentCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if c.IsEmpty() {
		respondJSON(w, http.StatusOK, domain.StockValidation{IsValid: true, PerItemDetails: []domain.StockItemDetail{}})
		return
	}

	if _, err := ws.Stock.Fetch(ctx, c.ProductIDs()); err != nil {
		// unknown products read as out of stock, so the answer stays safe
		logFrom(r).WarnContext(ctx, "validating against cached stock", "error", err)
	}
	respondJSON(w, http.StatusOK, ws.Stock.Validate(c.Items))
}

func (h *StockHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}
	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil || quantity < 1 {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be a positive integer")
			return
		}
	}

	ws := workspaceFrom(r)
	c, err := ws.CurrentCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if _, err := ws.Stock.Fetch(ctx, append(c.ProductIDs(), productID)); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ws.Stock.StatusFor(productID, quantity))
}
