package domain

import "github.com/shopspring/decimal"

type Warehouse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

type CarrierOption struct {
	QuoteID     string          `json:"quoteId"`
	CarrierName string          `json:"carrierName"`
	CarrierCode string          `json:"carrierCode"`
	Tier        string          `json:"tier"`
	Cost        decimal.Decimal `json:"cost"`
	EtaDays     int             `json:"etaDays"`
	EtaDate     string          `json:"etaDate"`
	MaxWeightKg float64         `json:"maxWeightKg"`
	DistanceKm  float64         `json:"distanceKm"`
	LogoRef     string          `json:"logoRef,omitempty"`
}

type Store struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	City       string  `json:"city,omitempty"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distanceKm"`
	Hours      string  `json:"hours,omitempty"`
}

type PickupOption struct {
	Available   bool    `json:"available"`
	Stores      []Store `json:"stores"`
	EtaDays     int     `json:"etaDays"`
	EtaDate     string  `json:"etaDate"`
	Description string  `json:"description"`
}

// ShippingQuote is valid for one destination and one cart content; it is
// never persisted.
type ShippingQuote struct {
	OriginWarehouse Warehouse       `json:"originWarehouse"`
	DistanceKm      float64         `json:"distanceKm"`
	CarrierOptions  []CarrierOption `json:"carrierOptions"`
	PickupOption    PickupOption    `json:"pickupOption"`
}

// Destination is either a saved address or the shopper's live location.
type Destination struct {
	Address     *Address     `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// PickupInfo is the pickup metadata carried by a store selection.
type PickupInfo struct {
	EtaDays     int    `json:"etaDays"`
	EtaDate     string `json:"etaDate"`
	Description string `json:"description"`
}

// ShippingSelection is what the quote step hands to the checkout: either a
// carrier for home delivery or a store for pickup, plus the quote metadata
// needed to build the order.
type ShippingSelection struct {
	Carrier         *CarrierOption `json:"carrier,omitempty"`
	Store           *Store         `json:"store,omitempty"`
	OriginWarehouse Warehouse      `json:"originWarehouse"`
	DistanceKm      float64        `json:"distanceKm,omitempty"`
	Pickup          *PickupInfo    `json:"pickup,omitempty"`
}

func (s ShippingSelection) IsPickup() bool {
	return s.Store != nil
}
