package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

// Rates are the flat shipping costs used before a carrier is chosen.
type Rates struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		Standard: decimal.RequireFromString("9.99"),
		Express:  decimal.RequireFromString("19.99"),
	}
}

// ComputeCosts derives subtotal, shipping and total from c. Pickup ships
// free; home delivery costs the selected carrier, or the flat rate of the
// method while no carrier is chosen.
func ComputeCosts(c Context, rates Rates) domain.Costs {
	subtotal := decimal.Zero
	if c.Cart != nil {
		subtotal = c.Cart.Subtotal()
	}

	shipping := decimal.Zero
	switch {
	case c.DeliveryMethod.IsPickup():
	case c.Carrier() != nil:
		shipping = c.Carrier().Cost
	case c.DeliveryMethod == domain.DeliveryStandard:
		shipping = rates.Standard
	case c.DeliveryMethod == domain.DeliveryExpress:
		shipping = rates.Express
	}

	return domain.Costs{
		Subtotal: subtotal.Round(2),
		Shipping: shipping.Round(2),
		Total:    subtotal.Add(shipping).Round(2),
	}
}
