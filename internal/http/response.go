package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/address"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/cart"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/checkout"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/client"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/order"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/quote"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/stock"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorWithDetails(w, status, code, message, "")
}

func respondErrorWithDetails(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// errorMapping converts a core error into status, code and, for errors that
// send the shopper elsewhere, the step to go back to.
type errorMapping struct {
	target   error
	status   int
	code     string
	redirect string
}

var errorMappings = []errorMapping{
	{cart.ErrMutationInFlight, http.StatusConflict, "mutation_in_flight", ""},
	{address.ErrMutationInFlight, http.StatusConflict, "mutation_in_flight", ""},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity", ""},
	{stock.ErrInvalidAmount, http.StatusBadRequest, "invalid_quantity", ""},
	{stock.ErrOutOfStock, http.StatusConflict, "out_of_stock", ""},
	{stock.ErrExceedsStock, http.StatusConflict, "exceeds_stock", ""},
	{cart.ErrItemNotFound, http.StatusNotFound, "item_not_found", ""},
	{address.ErrAddressNotFound, http.StatusNotFound, "address_not_found", ""},
	{checkout.ErrNoCart, http.StatusConflict, "no_cart", "cart"},
	{checkout.ErrSessionNotFound, http.StatusNotFound, "checkout_not_found", "cart"},
	{checkout.ErrStepIncomplete, http.StatusUnprocessableEntity, "step_incomplete", ""},
	{checkout.ErrWrongStep, http.StatusConflict, "wrong_step", ""},
	{checkout.IllegalTransitionError, http.StatusConflict, "illegal_transition", ""},
	{checkout.ErrIncompatibleMethod, http.StatusBadRequest, "incompatible_selection", ""},
	{checkout.ErrContactUnavailable, http.StatusServiceUnavailable, "contact_unavailable", ""},
	{checkout.ErrCheckoutCompleted, http.StatusConflict, "checkout_completed", ""},
	{quote.ErrOptionNotFound, http.StatusNotFound, "option_not_found", ""},
	{quote.ErrNoQuote, http.StatusConflict, "no_quote", ""},
	{quote.ErrPickupUnavailable, http.StatusConflict, "pickup_unavailable", ""},
	{order.ErrMissingContact, http.StatusUnprocessableEntity, "missing_contact", ""},
	{order.ErrMissingDelivery, http.StatusUnprocessableEntity, "missing_delivery", ""},
	{order.ErrEmptyOrder, http.StatusConflict, "no_cart", "cart"},
	{gobreaker.ErrOpenState, http.StatusServiceUnavailable, "service_unavailable", ""},
	{gobreaker.ErrTooManyRequests, http.StatusServiceUnavailable, "service_unavailable", ""},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout", ""},
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, "validation_failed", verr.Error())
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.redirect != "" {
				respondErrorWithDetails(w, m.status, m.code, err.Error(), "redirect_step="+m.redirect)
				return
			}
			respondError(w, m.status, m.code, err.Error())
			return
		}
	}

	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		if errors.Is(err, client.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		logFrom(r).WarnContext(r.Context(), "upstream error", "error", err)
		respondError(w, http.StatusBadGateway, "upstream_error", "upstream service error")
		return
	}

	// *url.Error from a collaborator call is a net.Error too
	var netErr net.Error
	if errors.As(err, &netErr) {
		logFrom(r).WarnContext(r.Context(), "upstream unreachable", "error", err)
		respondError(w, http.StatusBadGateway, "upstream_error", "upstream service unreachable")
		return
	}

	logFrom(r).ErrorContext(r.Context(), "request failed", "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
