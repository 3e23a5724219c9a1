package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Step
		want     bool
	}{
		{StepDeliveryMethod, StepContactInfo, true},
		{StepDeliveryMethod, StepShipping, false},
		{StepContactInfo, StepShipping, true},
		{StepContactInfo, StepDeliveryMethod, true},
		{StepShipping, StepReview, true},
		{StepShipping, StepDeliveryMethod, false},
		{StepReview, StepCompleted, true},
		{StepReview, StepShipping, true},
		{StepCompleted, StepReview, false},
		{StepDeliveryMethod, StepCompleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestStepNavigation(t *testing.T) {
	assert.Equal(t, StepContactInfo, StepDeliveryMethod.Next())
	assert.Equal(t, StepCompleted, StepReview.Next())
	assert.Empty(t, StepCompleted.Next())
	assert.Empty(t, StepDeliveryMethod.Previous())
	assert.Equal(t, StepShipping, StepReview.Previous())
	assert.Empty(t, StepCompleted.Previous())
	assert.True(t, StepCompleted.IsTerminal())
	assert.False(t, Step("bogus").Valid())
}

func TestComputeCosts_Scenario(t *testing.T) {
	c := Context{Cart: &domain.Cart{Items: []domain.CartItem{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(50)},
	}}}

	costs := ComputeCosts(c, DefaultRates())
	assert.Equal(t, "250", costs.Subtotal.String())
	assert.True(t, costs.Shipping.IsZero())

	c.DeliveryMethod = domain.DeliveryStandard
	costs = ComputeCosts(c, DefaultRates())
	assert.Equal(t, "250.00", costs.Subtotal.StringFixed(2))
	assert.Equal(t, "9.99", costs.Shipping.String())
	assert.Equal(t, "259.99", costs.Total.String())

	c.DeliveryMethod = domain.DeliveryExpress
	assert.Equal(t, "269.99", ComputeCosts(c, DefaultRates()).Total.String())

	c.Selection = &domain.ShippingSelection{Carrier: &domain.CarrierOption{Cost: decimal.RequireFromString("12.50")}}
	assert.Equal(t, "262.5", ComputeCosts(c, DefaultRates()).Total.String())
}

func TestComputeCosts_PickupIsFreeRegardlessOfCarrier(t *testing.T) {
	c := Context{
		Cart:           &domain.Cart{Items: []domain.CartItem{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(40)}}},
		DeliveryMethod: domain.DeliveryPickup,
		Selection: &domain.ShippingSelection{
			Carrier: &domain.CarrierOption{Cost: decimal.NewFromInt(30)},
			Store:   &domain.Store{ID: "storeA"},
		},
	}

	costs := ComputeCosts(c, DefaultRates())

	assert.True(t, costs.Shipping.IsZero())
	assert.Equal(t, "40", costs.Total.String())
}

func TestContextClone_IsDeep(t *testing.T) {
	orig := Context{
		Cart:      &domain.Cart{ID: "c1", Items: []domain.CartItem{{ProductID: 1, Quantity: 1}}},
		Contact:   &domain.ContactInfo{FullName: "Ana"},
		Selection: &domain.ShippingSelection{Carrier: &domain.CarrierOption{CarrierCode: "OLVA"}},
	}

	cp := orig.Clone()
	cp.Cart.Items[0].Quantity = 9
	cp.Contact.FullName = "Luis"
	cp.Selection.Carrier.CarrierCode = "DHL"

	assert.Equal(t, 1, orig.Cart.Items[0].Quantity)
	assert.Equal(t, "Ana", orig.Contact.FullName)
	assert.Equal(t, "OLVA", orig.Selection.Carrier.CarrierCode)
}
