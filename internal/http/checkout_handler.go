package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/checkout"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/quote"
)

type CheckoutHandler struct {
	wizard  *checkout.Wizard
	timeout time.Duration
}

func NewCheckoutHandler(wizard *checkout.Wizard, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{wizard: wizard, timeout: timeout}
}

type DeliveryMethodRequestDTO struct {
	Method domain.DeliveryMethod `json:"method"`
}

type CheckoutAddressRequestDTO struct {
	AddressID string          `json:"addressId,omitempty"`
	Address   *domain.Address `json:"address,omitempty"`
}

type CarrierRequestDTO struct {
	CarrierID string `json:"carrierId"`
}

type StoreRequestDTO struct {
	StoreID string `json:"storeId"`
}

type CheckoutResponse struct {
	Session     *checkout.Session `json:"session"`
	CanContinue bool              `json:"canContinue"`
	Missing     string            `json:"missing,omitempty"`
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, status int, s *checkout.Session) {
	resp := CheckoutResponse{Session: s}
	if s.Step != checkout.StepCompleted {
		if err := checkout.Missing(*s); err != nil {
			resp.Missing = err.Error()
		} else {
			resp.CanContinue = true
		}
	}
	respondJSON(w, status, resp)
}

func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	c, err := ws.CurrentCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s, err := h.wizard.Start(ctx, ws.ID(), ws.Account(), c)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, s)
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.wizard.Get(ctx, workspaceFrom(r).ID(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

func (h *CheckoutHandler) SetDeliveryMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req DeliveryMethodRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Method.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_delivery_method", "method must be standard, express or pickup")
		return
	}

	s, err := h.wizard.SelectDeliveryMethod(ctx, workspaceFrom(r).ID(), chi.URLParam(r, "id"), req.Method)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

func (h *CheckoutHandler) SetContact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var contact domain.ContactInfo
	if !decodeJSON(w, r, &contact) {
		return
	}

	s, err := h.wizard.SetContact(ctx, workspaceFrom(r).ID(), chi.URLParam(r, "id"), contact)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

func (h *CheckoutHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutAddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ws := workspaceFrom(r)
	var a domain.Address
	switch {
	case req.AddressID != "":
		found, err := ensureAddress(ctx, ws, ws.Account(), req.AddressID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		a = found
	case req.Address != nil:
		a = *req.Address
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "addressId or address is required")
		return
	}

	s, err := h.wizard.SelectAddress(ctx, ws.ID(), chi.URLParam(r, "id"), a)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

// ShippingOptions quotes the checkout's cart for its delivery address.
func (h *CheckoutHandler) ShippingOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	s, err := h.wizard.Get(ctx, ws.ID(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if s.Context.Address != nil {
		ws.Quotes.Quote(ctx, s.Context.Cart, domain.Destination{Address: s.Context.Address})
	}
	respondJSON(w, http.StatusOK, quoteResponse(ws))
}

// SetCarrier picks a carrier from the quote for the checkout's address,
// fetching that quote when the current one is for another destination.
func (h *CheckoutHandler) SetCarrier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CarrierRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	ws := workspaceFrom(r)
	id := chi.URLParam(r, "id")

	s, err := h.wizard.Get(ctx, ws.ID(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if s.Context.Address == nil {
		handleError(w, r, checkout.ErrStepIncomplete)
		return
	}
	if ws.Quotes.Quote(ctx, s.Context.Cart, domain.Destination{Address: s.Context.Address}) == nil {
		if err := ws.Quotes.Err(); err != nil {
			handleError(w, r, err)
			return
		}
		handleError(w, r, quote.ErrNoQuote)
		return
	}

	sel, err := ws.Quotes.SelectCarrier(req.CarrierID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s, err = h.wizard.SelectCarrier(ctx, ws.ID(), id, sel)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

// SetStore picks a pickup store from the current quote.
func (h *CheckoutHandler) SetStore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StoreRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	ws := workspaceFrom(r)

	sel, err := ws.Quotes.SelectStore(req.StoreID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s, err := h.wizard.SelectStore(ctx, ws.ID(), chi.URLParam(r, "id"), sel)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

func (h *CheckoutHandler) Continue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	id := chi.URLParam(r, "id")

	// the review step re-reads the cart so the totals match what is ordered
	if current, err := h.wizard.Get(ctx, ws.ID(), id); err == nil && current.Step == checkout.StepShipping {
		if c, err := ws.CurrentCart(ctx); err == nil {
			if _, err := h.wizard.RefreshCart(ctx, ws.ID(), id, c); err != nil {
				logFrom(r).WarnContext(ctx, "failed to refresh checkout cart", "checkout_id", id, "error", err)
			}
		}
	}

	s, err := h.wizard.Continue(ctx, ws.ID(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.wizard.Back(ctx, workspaceFrom(r).ID(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	s, err := h.wizard.Confirm(ctx, ws.ID(), chi.URLParam(r, "id"), ws.Orders)
	if err != nil {
		handleError(w, r, err)
		return
	}
	ws.Quotes.Invalidate()
	ws.Stock.Invalidate()
	h.respond(w, http.StatusOK, s)
}

func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.wizard.Abandon(ctx, workspaceFrom(r).ID(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
