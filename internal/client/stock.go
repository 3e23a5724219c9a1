package client

import (
	"context"
	"net/http"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type StockClient struct {
	*baseClient
}

func NewStockClient(baseURL string, opts ...Option) *StockClient {
	return &StockClient{newBaseClient("stock-service", baseURL, opts...)}
}

type bulkStockRequest struct {
	ProductIDs []int64 `json:"productIds"`
}

func (c *StockClient) BulkStock(ctx context.Context, productIDs []int64) ([]domain.StockSnapshot, error) {
	var snapshots []domain.StockSnapshot
	if err := c.do(ctx, http.MethodPost, "/stock/bulk", nil, bulkStockRequest{ProductIDs: productIDs}, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
