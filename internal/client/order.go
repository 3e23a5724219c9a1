package client

import (
	"context"
	"net/http"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderClient struct {
	*baseClient
}

func NewOrderClient(baseURL string, opts ...Option) *OrderClient {
	return &OrderClient{newBaseClient("order-service", baseURL, opts...)}
}

func (c *OrderClient) CreateOrder(ctx context.Context, payload domain.OrderPayload, idempotencyKey string) (*domain.Order, error) {
	var order domain.Order
	err := c.do(ctx, http.MethodPost, "/orders", nil, payload, &order, withHeader(IdempotencyHeader, idempotencyKey))
	if err != nil {
		return nil, err
	}
	return &order, nil
}
