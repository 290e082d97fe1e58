package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateItem      = errors.New("duplicate cart item id")
	ErrTotalQuantityDrift = errors.New("total quantity does not match items")
	ErrTotalPriceDrift    = errors.New("total price does not match items")
	ErrNonPositiveQty     = errors.New("cart item quantity below 1")
)

// CartItem is one line of the cart. Name and Price are fixed when the item is
// first added; later adds of the same ID only grow Quantity.
type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns Price × Quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartState is one snapshot of the cart. Snapshots are treated as immutable:
// transitions build a new value instead of editing Items in place.
type CartState struct {
	Items         []CartItem      `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// EmptyCart returns {[], 0, 0}.
func EmptyCart() CartState {
	return CartState{
		Items:      []CartItem{},
		TotalPrice: decimal.Zero,
	}
}

// Clone deep-copies the item slice so the copy can be handed out freely.
func (s CartState) Clone() CartState {
	items := make([]CartItem, len(s.Items))
	copy(items, s.Items)
	return CartState{
		Items:         items,
		TotalQuantity: s.TotalQuantity,
		TotalPrice:    s.TotalPrice,
	}
}

// Find returns the index of the item with the given id.
func (s CartState) Find(id string) (int, bool) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// IsEmpty reports whether the snapshot equals the empty cart.
func (s CartState) IsEmpty() bool {
	return len(s.Items) == 0 && s.TotalQuantity == 0 && s.TotalPrice.IsZero()
}

// Equal compares two snapshots field by field, prices by value.
func (s CartState) Equal(o CartState) bool {
	if len(s.Items) != len(o.Items) || s.TotalQuantity != o.TotalQuantity || !s.TotalPrice.Equal(o.TotalPrice) {
		return false
	}
	for i := range s.Items {
		a, b := s.Items[i], o.Items[i]
		if a.ID != b.ID || a.Name != b.Name || a.Quantity != b.Quantity || !a.Price.Equal(b.Price) {
			return false
		}
	}
	return true
}

// CheckInvariants verifies unique ids and that both totals match the items.
func (s CartState) CheckInvariants() error {
	seen := make(map[string]struct{}, len(s.Items))
	qty := 0
	price := decimal.Zero
	for _, item := range s.Items {
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, item.ID)
		}
		seen[item.ID] = struct{}{}
		qty += item.Quantity
		price = price.Add(item.Subtotal())
	}
	if qty != s.TotalQuantity {
		return fmt.Errorf("%w: have %d, items sum to %d", ErrTotalQuantityDrift, s.TotalQuantity, qty)
	}
	if !price.Equal(s.TotalPrice) {
		return fmt.Errorf("%w: have %s, items sum to %s", ErrTotalPriceDrift, s.TotalPrice, price)
	}
	return nil
}

// CheckQuantities reports the first item whose quantity fell below 1.
// Lenient stores can produce such items through UpdateQuantity.
func (s CartState) CheckQuantities() error {
	for _, item := range s.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: %s has %d", ErrNonPositiveQty, item.ID, item.Quantity)
		}
	}
	return nil
}

// AddItemRequest is the input of an add. Quantity 0 means omitted.
type AddItemRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity,omitempty"`
}

// RequestedQuantity applies the default of 1.
func (r AddItemRequest) RequestedQuantity() int {
	if r.Quantity == 0 {
		return 1
	}
	return r.Quantity
}
