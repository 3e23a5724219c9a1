package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type CartClient struct {
	*baseClient
}

func NewCartClient(baseURL string, opts ...Option) *CartClient {
	return &CartClient{newBaseClient("cart-service", baseURL, opts...)}
}

type createCartRequest struct {
	OwnerID *string `json:"ownerId,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type bindCartRequest struct {
	OwnerID string `json:"ownerId"`
}

type adoptCartRequest struct {
	OwnerID         string `json:"ownerId"`
	AnonymousCartID string `json:"anonymousCartId,omitempty"`
}

func (c *CartClient) Create(ctx context.Context, ownerID *string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodPost, "/carts", nil, createCartRequest{OwnerID: ownerID}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodGet, "/carts/"+url.PathEscape(cartID), nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) AddItem(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodPost, "/carts/"+url.PathEscape(cartID)+"/items", nil, item, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) UpdateItem(ctx context.Context, cartID string, productID int64, variantID *int64, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	err := c.do(ctx, http.MethodPatch, itemPath(cartID, productID), variantQuery(variantID), updateItemRequest{Quantity: quantity}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) DeleteItem(ctx context.Context, cartID string, productID int64, variantID *int64) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodDelete, itemPath(cartID, productID), variantQuery(variantID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) Bind(ctx context.Context, cartID, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodPut, "/carts/"+url.PathEscape(cartID)+"/owner", nil, bindCartRequest{OwnerID: ownerID}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) Clear(ctx context.Context, cartID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodDelete, "/carts/"+url.PathEscape(cartID)+"/items", nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Adopt hands an anonymous cart to an account. The service merges it into
// the account's existing cart or adopts it as is; with an empty
// anonymousCartID it resolves the account's cart, answering 404 when none.
func (c *CartClient) Adopt(ctx context.Context, ownerID, anonymousCartID string) (*domain.Cart, error) {
	var cart domain.Cart
	req := adoptCartRequest{OwnerID: ownerID, AnonymousCartID: anonymousCartID}
	if err := c.do(ctx, http.MethodPost, "/carts/adopt", nil, req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func itemPath(cartID string, productID int64) string {
	return "/carts/" + url.PathEscape(cartID) + "/items/" + strconv.FormatInt(productID, 10)
}

func variantQuery(variantID *int64) url.Values {
	if variantID == nil {
		return nil
	}
	return url.Values{"variantId": []string{strconv.FormatInt(*variantID, 10)}}
}
