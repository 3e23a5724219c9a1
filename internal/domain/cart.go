package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID int64           `json:"productId" validate:"required,gt=0"`
	VariantID *int64          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	ImageRef  string          `json:"imageRef,omitempty"`
}

// ItemKey identifies a cart line: a product plus an optional variant.
type ItemKey struct {
	ProductID  int64
	VariantID  int64
	HasVariant bool
}

func KeyOf(productID int64, variantID *int64) ItemKey {
	if variantID == nil {
		return ItemKey{ProductID: productID}
	}
	return ItemKey{ProductID: productID, VariantID: *variantID, HasVariant: true}
}

func (k ItemKey) String() string {
	if !k.HasVariant {
		return fmt.Sprintf("%d", k.ProductID)
	}
	return fmt.Sprintf("%d/%d", k.ProductID, k.VariantID)
}

func (i CartItem) Key() ItemKey {
	return KeyOf(i.ProductID, i.VariantID)
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	ID      string     `json:"id"`
	OwnerID *string    `json:"ownerId,omitempty"`
	Items   []CartItem `json:"items"`
}

// Clone returns a deep copy so snapshots taken before a mutation are not
// aliased by the mutated cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{ID: c.ID}
	if c.OwnerID != nil {
		owner := *c.OwnerID
		out.OwnerID = &owner
	}
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		for i, item := range c.Items {
			if item.VariantID != nil {
				v := *item.VariantID
				item.VariantID = &v
			}
			out.Items[i] = item
		}
	}
	return out
}

// Find returns the index of the line with the given key, or -1.
func (c *Cart) Find(key ItemKey) int {
	if c == nil {
		return -1
	}
	for i, item := range c.Items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ProductIDs returns the distinct product ids in cart order.
func (c *Cart) ProductIDs() []int64 {
	if c == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(c.Items))
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
