package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type CartHandler struct {
	timeout time.Duration
}

func NewCartHandler(timeout time.Duration) *CartHandler {
	return &CartHandler{timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64           `json:"productId"`
	VariantID *int64          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Cart      *domain.Cart    `json:"cart"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
}

func cartResponse(c *domain.Cart) CartResponse {
	resp := CartResponse{Cart: c, Subtotal: decimal.Zero}
	if c == nil {
		return resp
	}
	resp.Subtotal = c.Subtotal()
	for _, item := range c.Items {
		resp.ItemCount += item.Quantity
	}
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	c, err := ws.CurrentCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must be positive")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}

	ws := workspaceFrom(r)
	current, err := ws.CurrentCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	total := req.Quantity
	if i := current.Find(domain.KeyOf(req.ProductID, req.VariantID)); i >= 0 {
		total += current.Items[i].Quantity
	}
	if err := checkStock(ctx, ws, current, req.ProductID, total); err != nil {
		handleError(w, r, err)
		return
	}

	item := domain.CartItem{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
		ImageRef:  req.ImageRef,
	}
	if err := ws.Cart.AddItem(ctx, item); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(ws.Cart.Get()))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, variantID, ok := itemFromPath(w, r)
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1; remove the item instead")
		return
	}

	ws := workspaceFrom(r)
	current, err := ws.CurrentCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := checkStock(ctx, ws, current, productID, req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}

	if err := ws.Cart.UpdateQuantity(ctx, productID, req.Quantity, variantID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ws.Cart.Get()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, variantID, ok := itemFromPath(w, r)
	if !ok {
		return
	}

	ws := workspaceFrom(r)
	if _, err := ws.CurrentCart(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	if err := ws.Cart.RemoveItem(ctx, productID, variantID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ws.Cart.Get()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	if _, err := ws.CurrentCart(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	if err := ws.Cart.Clear(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ws.Cart.Get()))
}

// checkStock refreshes the stock of the cart's products plus productID and
// refuses quantities the stock cannot cover. When the refresh fails, a
// previous snapshot of productID still decides.
func checkStock(ctx context.Context, ws *Workspace, current *domain.Cart, productID int64, quantity int) error {
	ids := append(current.ProductIDs(), productID)
	if _, err := ws.Stock.Fetch(ctx, ids); err != nil {
		// the cache logged the failure
		if !ws.Stock.Holds([]int64{productID}) {
			return err
		}
	}
	return ws.Stock.CanSetQuantity(productID, quantity)
}

func itemFromPath(w http.ResponseWriter, r *http.Request) (int64, *int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, nil, false
	}

	raw := r.URL.Query().Get("variantId")
	if raw == "" {
		return productID, nil, true
	}
	variantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_variant_id", "variantId must be an integer")
		return 0, nil, false
	}
	return productID, &variantID, true
}
