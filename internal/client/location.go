package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type LocationClient struct {
	*baseClient
}

func NewLocationClient(baseURL string, opts ...Option) *LocationClient {
	return &LocationClient{newBaseClient("location-service", baseURL, opts...)}
}

// LookupIP resolves approximate coordinates for a client address. An empty
// ip lets the service use the caller's own address.
func (c *LocationClient) LookupIP(ctx context.Context, ip string) (domain.Coordinates, error) {
	var coords domain.Coordinates
	var query url.Values
	if ip != "" {
		query = url.Values{"ip": []string{ip}}
	}
	if err := c.do(ctx, http.MethodGet, "/locate", query, nil, &coords); err != nil {
		return domain.Coordinates{}, err
	}
	return coords, nil
}
