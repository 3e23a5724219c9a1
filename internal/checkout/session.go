package checkout

import (
	"time"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

// Context is what the steps accumulate. Each transition hands the next step
// an enriched copy; going back hands the same copy to the earlier step.
type Context struct {
	AccountID      string                    `json:"accountId,omitempty"`
	Cart           *domain.Cart              `json:"cart"`
	DeliveryMethod domain.DeliveryMethod     `json:"deliveryMethod,omitempty"`
	Contact        *domain.ContactInfo       `json:"contact,omitempty"`
	Address        *domain.Address           `json:"address,omitempty"`
	Selection      *domain.ShippingSelection `json:"selection,omitempty"`
	Costs          domain.Costs              `json:"costs"`
	Order          *domain.Order             `json:"order,omitempty"`
}

// Clone copies the context deeply enough that edits to the copy never reach
// the original.
func (c Context) Clone() Context {
	out := c
	out.Cart = c.Cart.Clone()
	if c.Contact != nil {
		contact := *c.Contact
		out.Contact = &contact
	}
	if c.Address != nil {
		address := *c.Address
		out.Address = &address
	}
	if c.Selection != nil {
		sel := *c.Selection
		if sel.Carrier != nil {
			carrier := *sel.Carrier
			sel.Carrier = &carrier
		}
		if sel.Store != nil {
			store := *sel.Store
			sel.Store = &store
		}
		if sel.Pickup != nil {
			pickup := *sel.Pickup
			sel.Pickup = &pickup
		}
		out.Selection = &sel
	}
	if c.Order != nil {
		o := *c.Order
		out.Order = &o
	}
	return out
}

// Carrier returns the selected carrier, nil for pickup or before a choice.
func (c Context) Carrier() *domain.CarrierOption {
	if c.Selection == nil {
		return nil
	}
	return c.Selection.Carrier
}

// Store returns the selected pickup store, if any.
func (c Context) Store() *domain.Store {
	if c.Selection == nil {
		return nil
	}
	return c.Selection.Store
}

// Session is one checkout attempt. Owner is the browser session that
// started it; the wizard refuses it to anyone else.
type Session struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Step      Step      `json:"step"`
	Context   Context   `json:"context"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Session) Clone() Session {
	s.Context = s.Context.Clone()
	return s
}
