package domain

import "github.com/shopspring/decimal"

type OrderLine struct {
	ProductID int64           `json:"productId"`
	VariantID *int64          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// HomeDelivery is the ENVIO_A_DOMICILIO block of an order payload.
type HomeDelivery struct {
	Method          DeliveryMethod  `json:"method"`
	Address         Address         `json:"address"`
	QuoteID         string          `json:"quoteId"`
	CarrierCode     string          `json:"carrierCode"`
	CarrierName     string          `json:"carrierName"`
	Cost            decimal.Decimal `json:"cost"`
	EtaDate         string          `json:"etaDate"`
	OriginWarehouse Warehouse       `json:"originWarehouse"`
	DistanceKm      float64         `json:"distanceKm"`
}

// StorePickup is the RECOJO_EN_TIENDA block of an order payload.
type StorePickup struct {
	StoreID         string    `json:"storeId"`
	StoreName       string    `json:"storeName"`
	StoreAddress    string    `json:"storeAddress"`
	EtaDays         int       `json:"etaDays"`
	EtaDate         string    `json:"etaDate"`
	OriginWarehouse Warehouse `json:"originWarehouse"`
}

type OrderPayload struct {
	CartID       string        `json:"cartId"`
	AccountID    string        `json:"accountId,omitempty"`
	Contact      ContactInfo   `json:"contact"`
	DeliveryType DeliveryType  `json:"deliveryType"`
	Shipping     *HomeDelivery `json:"shipping,omitempty"`
	Pickup       *StorePickup  `json:"pickup,omitempty"`
	Items        []OrderLine   `json:"items"`
	Costs        Costs         `json:"costs"`
}
