package http

import (
	"context"
	"net/http"
	"time"
)

type SessionHandler struct {
	timeout time.Duration
}

func NewSessionHandler(timeout time.Duration) *SessionHandler {
	return &SessionHandler{timeout: timeout}
}

type SessionResponse struct {
	SessionID string       `json:"sessionId"`
	AccountID string       `json:"accountId,omitempty"`
	Cart      CartResponse `json:"cart"`
}

func sessionResponse(ws *Workspace) SessionResponse {
	return SessionResponse{
		SessionID: ws.ID(),
		AccountID: ws.Account(),
		Cart:      cartResponse(ws.Cart.Get()),
	}
}

// SignIn binds the session to the account in the bearer token. The guest
// cart is merged into the account's cart, or becomes it.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	account := accountFrom(r.Context())
	if account == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	ws := workspaceFrom(r)
	if _, err := ws.CurrentCart(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	if err := ws.Cart.SignIn(ctx, account); err != nil {
		handleError(w, r, err)
		return
	}
	if _, err := ws.Addresses.List(ctx, account); err != nil {
		logFrom(r).WarnContext(ctx, "addresses not loaded after sign-in", "account_id", account, "error", err)
	}
	ws.Quotes.Invalidate()
	respondJSON(w, http.StatusOK, sessionResponse(ws))
}

// SignOut keeps the session but detaches it from the account and its cart.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := workspaceFrom(r)
	if err := ws.Cart.SignOut(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	_, _ = ws.Addresses.List(ctx, "")
	ws.Quotes.Invalidate()
	ws.Stock.Invalidate()
	respondJSON(w, http.StatusOK, sessionResponse(ws))
}

func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
