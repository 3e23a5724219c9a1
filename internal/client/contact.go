package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type ContactClient struct {
	*baseClient
}

func NewContactClient(baseURL string, opts ...Option) *ContactClient {
	return &ContactClient{newBaseClient("contact-service", baseURL, opts...)}
}

// FindContact answers an error matching ErrNotFound when the account has no
// checkout contact yet.
func (c *ContactClient) FindContact(ctx context.Context, accountID string) (*domain.ContactInfo, error) {
	var contact domain.ContactInfo
	if err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(accountID), nil, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *ContactClient) CreateContact(ctx context.Context, contact domain.ContactInfo) (*domain.ContactInfo, error) {
	var created domain.ContactInfo
	if err := c.do(ctx, http.MethodPost, "/contacts", nil, contact, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
