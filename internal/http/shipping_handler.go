package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/geo"
)

type ShippingHandler struct {
	locations     geo.IPResolver
	deviceTimeout time.Duration
	timeout       time.Duration
}

// NewShippingHandler builds the quote endpoints. locations may be nil, in
// which case "use my location" relies on the device position alone.
func NewShippingHandler(locations geo.IPResolver, deviceTimeout, timeout time.Duration) *ShippingHandler {
	return &ShippingHandler{locations: locations, deviceTimeout: deviceTimeout, timeout: timeout}
}

// QuoteRequestDTO names the destination in one of four ways, checked in this
// order: a saved address, an inline address, explicit coordinates, or the
// shopper's current location.
type QuoteRequestDTO struct {
	AddressID     string              `json:"addressId,omitempty"`
	Address       *domain.Address     `json:"address,omitempty"`
	Coordinates   *domain.Coordinates `json:"coordinates,omitempty"`
	UseMyLocation bool                `json:"useMyLocation,omitempty"`
	// DevicePosition is what the browser's geolocation reported, if anything.
	DevicePosition *domain.Coordinates `json:"devicePosition,omitempty"`
}

type QuoteResponse struct {
	Quote    *domain.ShippingQuote  `json:"quote"`
	Carriers []domain.CarrierOption `json:"carriers"`
	Pickup   domain.PickupOption    `json:"pickup"`
	Error    string                 `json:"error,omitempty"`
}

type SelectRequestDTO struct {
	CarrierID string `json:"carrierId,omitempty"`
	StoreID   string `json:"storeId,omitempty"`
}

func quoteResponse(ws *Workspace) QuoteResponse {
	resp := QuoteResponse{
		Quote:    ws.Quotes.Current(),
		Carriers: ws.Quotes.Carriers(),
		Pickup:   ws.Quotes.Pickup(),
	}
	if err := ws.Quotes.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Quote always answers 200: a failed quote is reported in the body with
// empty option lists.
func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req QuoteRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ws := workspaceFrom(r)
	c, err := ws.CurrentCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	switch {
	case req.AddressID != "":
		a, err := ensureAddress(ctx, ws, ws.Account(), req.AddressID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		ws.Quotes.Quote(ctx, c, domain.Destination{Address: &a})
	case req.Address != nil:
		ws.Quotes.Quote(ctx, c, domain.Destination{Address: req.Address})
	case req.Coordinates != nil:
		if err := domain.Validate(*req.Coordinates); err != nil {
			handleError(w, r, err)
			return
		}
		ws.Quotes.Quote(ctx, c, domain.Destination{Coordinates: req.Coordinates})
	case req.UseMyLocation:
		ws.Quotes.QuoteNearby(ctx, c, h.locator(r, req.DevicePosition))
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "addressId, address, coordinates or useMyLocation is required")
		return
	}

	respondJSON(w, http.StatusOK, quoteResponse(ws))
}

func (h *ShippingHandler) locator(r *http.Request, device *domain.Coordinates) geo.Locator {
	chain := geo.Chain{
		Device:  geo.StaticLocator{Position: device},
		Timeout: h.deviceTimeout,
		Log:     logFrom(r),
	}
	if h.locations != nil {
		chain.Fallback = geo.IPLocator{Resolver: h.locations, IP: clientIP(r)}
	}
	return chain
}

// Select resolves a carrier or a pickup store from the current quote.
func (h *ShippingHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ws := workspaceFrom(r)
	var (
		sel domain.ShippingSelection
		err error
	)
	switch {
	case req.CarrierID != "":
		sel, err = ws.Quotes.SelectCarrier(req.CarrierID)
	case req.StoreID != "":
		sel, err = ws.Quotes.SelectStore(req.StoreID)
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "carrierId or storeId is required")
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sel)
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
