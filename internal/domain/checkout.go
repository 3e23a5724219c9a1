package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryExpress  DeliveryMethod = "express"
	DeliveryPickup   DeliveryMethod = "pickup"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryStandard || m == DeliveryExpress || m == DeliveryPickup
}

func (m DeliveryMethod) IsPickup() bool {
	return m == DeliveryPickup
}

// DeliveryType is the order-service name for the delivery variant.
type DeliveryType string

const (
	DeliveryTypePickup DeliveryType = "RECOJO_EN_TIENDA"
	DeliveryTypeHome   DeliveryType = "ENVIO_A_DOMICILIO"
)

func (m DeliveryMethod) DeliveryType() DeliveryType {
	if m.IsPickup() {
		return DeliveryTypePickup
	}
	return DeliveryTypeHome
}

type ContactInfo struct {
	ID        string `json:"id,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	FullName  string `json:"fullName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
}

// Complete reports whether name, email and phone are all non-blank.
func (c ContactInfo) Complete() bool {
	return strings.TrimSpace(c.FullName) != "" &&
		strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.Phone) != ""
}

type Costs struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type Order struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}
