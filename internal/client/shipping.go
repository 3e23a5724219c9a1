package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type ShippingClient struct {
	*baseClient
}

func NewShippingClient(baseURL string, opts ...Option) *ShippingClient {
	return &ShippingClient{newBaseClient("shipping-service", baseURL, opts...)}
}

type QuoteItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type QuoteRequest struct {
	Lat         *float64    `json:"lat,omitempty"`
	Lng         *float64    `json:"lng,omitempty"`
	AddressText string      `json:"address,omitempty"`
	Items       []QuoteItem `json:"items"`
}

func (c *ShippingClient) ListAddresses(ctx context.Context, ownerID string) ([]domain.Address, error) {
	var addresses []domain.Address
	if err := c.do(ctx, http.MethodGet, "/owners/"+url.PathEscape(ownerID)+"/addresses", nil, nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *ShippingClient) CreateAddress(ctx context.Context, form domain.AddressForm) (*domain.Address, error) {
	var address domain.Address
	if err := c.do(ctx, http.MethodPost, "/owners/"+url.PathEscape(form.OwnerID)+"/addresses", nil, form, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (c *ShippingClient) UpdateAddress(ctx context.Context, id string, patch domain.AddressPatch) (*domain.Address, error) {
	var address domain.Address
	if err := c.do(ctx, http.MethodPatch, "/addresses/"+url.PathEscape(id), nil, patch, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (c *ShippingClient) DeleteAddress(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, nil, nil)
}

func (c *ShippingClient) SetPrimary(ctx context.Context, id string) (*domain.Address, error) {
	var address domain.Address
	if err := c.do(ctx, http.MethodPost, "/addresses/"+url.PathEscape(id)+"/primary", nil, nil, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (c *ShippingClient) Quote(ctx context.Context, req QuoteRequest) (*domain.ShippingQuote, error) {
	var quote domain.ShippingQuote
	if err := c.do(ctx, http.MethodPost, "/quotes", nil, req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}
