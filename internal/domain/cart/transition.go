package cart

import (
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/shopspring/decimal"
)

// AddItem appends req as a new line, or grows the existing line with the same
// id. On merge the stored name and price win over the request's.
func AddItem(s model.CartState, req model.AddItemRequest) (model.CartState, Result) {
	qty := req.RequestedQuantity()
	next := s.Clone()

	if idx, ok := next.Find(req.ID); ok {
		item := next.Items[idx]
		old := item.Quantity
		item.Quantity += qty
		next.Items[idx] = item
		next.TotalQuantity += qty
		next.TotalPrice = next.TotalPrice.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
		return next, Result{Outcome: OutcomeApplied, Merged: true, Item: item, OldQuantity: old}
	}

	item := model.CartItem{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Quantity: qty,
	}
	next.Items = append(next.Items, item)
	next.TotalQuantity += qty
	next.TotalPrice = next.TotalPrice.Add(item.Subtotal())
	return next, Result{Outcome: OutcomeApplied, Item: item}
}

// RemoveItem drops the line with the given id. Unknown ids return s as is.
func RemoveItem(s model.CartState, id string) (model.CartState, Result) {
	idx, ok := s.Find(id)
	if !ok {
		return s, Result{Outcome: OutcomeNotFound}
	}

	removed := s.Items[idx]
	items := make([]model.CartItem, 0, len(s.Items)-1)
	items = append(items, s.Items[:idx]...)
	items = append(items, s.Items[idx+1:]...)

	next := model.CartState{
		Items:         items,
		TotalQuantity: s.TotalQuantity - removed.Quantity,
		TotalPrice:    s.TotalPrice.Sub(removed.Subtotal()),
	}
	return next, Result{Outcome: OutcomeApplied, Item: removed, OldQuantity: removed.Quantity}
}

// UpdateQuantity sets the line's quantity to qty. No lower bound is enforced
// here; see Validate.
func UpdateQuantity(s model.CartState, id string, qty int) (model.CartState, Result) {
	idx, ok := s.Find(id)
	if !ok {
		return s, Result{Outcome: OutcomeNotFound}
	}

	next := s.Clone()
	item := next.Items[idx]
	old := item.Quantity
	delta := qty - old
	item.Quantity = qty
	next.Items[idx] = item
	next.TotalQuantity += delta
	next.TotalPrice = next.TotalPrice.Add(item.Price.Mul(decimal.NewFromInt(int64(delta))))
	return next, Result{Outcome: OutcomeApplied, Item: item, OldQuantity: old}
}

// ClearCart always returns the empty cart.
func ClearCart(model.CartState) (model.CartState, Result) {
	return model.EmptyCart(), Result{Outcome: OutcomeApplied}
}
