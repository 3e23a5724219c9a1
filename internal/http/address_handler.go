package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/address"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type AddressHandler struct {
	timeout time.Duration
}

func NewAddressHandler(timeout time.Duration) *AddressHandler {
	return &AddressHandler{timeout: timeout}
}

type AddressListResponse struct {
	Addresses []domain.Address `json:"addresses"`
	PrimaryID string           `json:"primaryId,omitempty"`
}

func addressList(ws *Workspace) AddressListResponse {
	resp := AddressListResponse{Addresses: ws.Addresses.Addresses()}
	if primary, ok := ws.Addresses.Primary(); ok {
		resp.PrimaryID = primary.ID
	}
	return resp
}

// requireAccount answers 401 for guests; saved addresses belong to accounts.
func requireAccount(w http.ResponseWriter, ws *Workspace) (string, bool) {
	account := ws.Account()
	if account == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to manage addresses")
		return "", false
	}
	return account, true
}

// ensureAddress makes sure id is in the local list, loading the list once
// when it is not.
func ensureAddress(ctx context.Context, ws *Workspace, owner, id string) (domain.Address, error) {
	if a, ok := ws.Addresses.Find(id); ok {
		return a, nil
	}
	if _, err := ws.Addresses.List(ctx, owner); err != nil {
		return domain.Address{}, err
	}
	if a, ok := ws.Addresses.Find(id); ok {
		return a, nil
	}
	return domain.Address{}, fmt.Errorf("address %q: %w", id, address.ErrAddressNotFound)
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	if _, err := ws.Addresses.List(ctx, ws.Account()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, addressList(ws))
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	owner, ok := requireAccount(w, ws)
	if !ok {
		return
	}
	var form domain.AddressForm
	if !decodeJSON(w, r, &form) {
		return
	}
	form.OwnerID = owner

	created, err := ws.Addresses.Create(ctx, form)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	owner, ok := requireAccount(w, ws)
	if !ok {
		return
	}
	var patch domain.AddressPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := ensureAddress(ctx, ws, owner, id); err != nil {
		handleError(w, r, err)
		return
	}

	updated, err := ws.Addresses.Update(ctx, id, patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *AddressHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	owner, ok := requireAccount(w, ws)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := ensureAddress(ctx, ws, owner, id); err != nil {
		handleError(w, r, err)
		return
	}

	if err := ws.Addresses.Remove(ctx, id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AddressHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	owner, ok := requireAccount(w, ws)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := ensureAddress(ctx, ws, owner, id); err != nil {
		handleError(w, r, err)
		return
	}

	if err := ws.Addresses.SetPrimary(ctx, id); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, addressList(ws))
}
