package cart

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddItem_NewItem(t *testing.T) {
	s, res := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Laptop", Price: price("999.99"), Quantity: 1})

	require.Equal(t, OutcomeApplied, res.Outcome)
	require.False(t, res.Merged)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "1", s.Items[0].ID)
	assert.Equal(t, "Laptop", s.Items[0].Name)
	assert.True(t, price("999.99").Equal(s.Items[0].Price))
	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, 1, s.TotalQuantity)
	assert.True(t, price("999.99").Equal(s.TotalPrice))
	require.NoError(t, s.CheckInvariants())
}

func TestAddItem_DefaultQuantity(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "a", Name: "Mouse", Price: price("25.50")})

	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, 1, s.TotalQuantity)
	assert.True(t, price("25.50").Equal(s.TotalPrice))
}

func TestAddItem_MergeKeepsStoredNameAndPrice(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Pen", Price: price("10"), Quantity: 1})
	s, res := AddItem(s, model.AddItemRequest{ID: "1", Name: "Pen", Price: price("10"), Quantity: 2})

	require.True(t, res.Merged)
	assert.Equal(t, 1, res.OldQuantity)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 3, s.Items[0].Quantity)
	assert.Equal(t, 3, s.TotalQuantity)
	assert.True(t, price("30").Equal(s.TotalPrice))

	// a different price/name on merge is ignored
	s, _ = AddItem(s, model.AddItemRequest{ID: "1", Name: "Fancy Pen", Price: price("99"), Quantity: 1})
	assert.Equal(t, "Pen", s.Items[0].Name)
	assert.True(t, price("10").Equal(s.Items[0].Price))
	assert.True(t, price("40").Equal(s.TotalPrice))
	require.NoError(t, s.CheckInvariants())
}

func TestAddItem_DoesNotMutateInput(t *testing.T) {
	base, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Pen", Price: price("10"), Quantity: 1})
	before := base.Clone()

	_, _ = AddItem(base, model.AddItemRequest{ID: "1", Quantity: 5})
	_, _ = AddItem(base, model.AddItemRequest{ID: "2", Name: "Ink", Price: price("3"), Quantity: 5})
	_, _ = UpdateQuantity(base, "1", 9)

	assert.True(t, before.Equal(base))
}

func TestRemoveItem(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Laptop", Price: price("999.99"), Quantity: 1})

	next, res := RemoveItem(s, "1")

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "1", res.Item.ID)
	assert.Empty(t, next.Items)
	assert.Equal(t, 0, next.TotalQuantity)
	assert.True(t, next.TotalPrice.IsZero())
	assert.True(t, next.IsEmpty())
	assert.Len(t, s.Items, 1, "input snapshot must stay intact")
}

func TestRemoveItem_UnknownIDIsNoop(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Laptop", Price: price("999.99"), Quantity: 2})

	next, res := RemoveItem(s, "999")

	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.False(t, res.Applied())
	assert.True(t, s.Equal(next))
	// same backing array, not a copy
	assert.Same(t, &s.Items[0], &next.Items[0])
}

func TestRemoveItem_KeepsOrder(t *testing.T) {
	s := model.EmptyCart()
	for _, id := range []string{"a", "b", "c"} {
		s, _ = AddItem(s, model.AddItemRequest{ID: id, Name: id, Price: price("1"), Quantity: 1})
	}

	s, _ = RemoveItem(s, "b")

	require.Len(t, s.Items, 2)
	assert.Equal(t, "a", s.Items[0].ID)
	assert.Equal(t, "c", s.Items[1].ID)
	require.NoError(t, s.CheckInvariants())
}

func TestUpdateQuantity(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Pen", Price: price("5"), Quantity: 2})
	before := s.TotalPrice

	next, res := UpdateQuantity(s, "1", 5)

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, 2, res.OldQuantity)
	assert.Equal(t, 5, next.Items[0].Quantity)
	assert.Equal(t, 5, next.TotalQuantity)
	assert.True(t, price("15").Equal(next.TotalPrice.Sub(before)))
	require.NoError(t, next.CheckInvariants())
}

func TestUpdateQuantity_UnknownIDIsNoop(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Pen", Price: price("5"), Quantity: 2})

	next, res := UpdateQuantity(s, "nope", 7)

	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.True(t, s.Equal(next))
}

func TestUpdateQuantity_NonPositiveIsLiteral(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Pen", Price: price("5"), Quantity: 2})

	next, res := UpdateQuantity(s, "1", 0)

	require.Equal(t, OutcomeApplied, res.Outcome)
	require.Len(t, next.Items, 1, "zero quantity is not auto-removed")
	assert.Equal(t, 0, next.Items[0].Quantity)
	assert.Equal(t, 0, next.TotalQuantity)
	assert.True(t, next.TotalPrice.IsZero())
	require.NoError(t, next.CheckInvariants())
	assert.ErrorIs(t, next.CheckQuantities(), model.ErrNonPositiveQty)
}

func TestClearCart(t *testing.T) {
	s, _ := AddItem(model.EmptyCart(), model.AddItemRequest{ID: "1", Name: "Pen", Price: price("5"), Quantity: 2})
	s, _ = AddItem(s, model.AddItemRequest{ID: "2", Name: "Ink", Price: price("1.25"), Quantity: 4})

	cleared, res := ClearCart(s)
	again, _ := ClearCart(cleared)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.True(t, cleared.IsEmpty())
	assert.NotNil(t, cleared.Items)
	assert.True(t, again.Equal(cleared))
}

func TestTransitions_InvariantsHoldForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"1", "2", "3", "4", "5"}
	prices := []string{"0", "0.01", "9.99", "10", "999.99"}

	for run := 0; run < 50; run++ {
		s := model.EmptyCart()
		for step := 0; step < 100; step++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(10) {
			case 0:
				s, _ = ClearCart(s)
			case 1, 2:
				s, _ = RemoveItem(s, id)
			case 3, 4, 5:
				s, _ = UpdateQuantity(s, id, rng.Intn(6)+1)
			default:
				s, _ = AddItem(s, model.AddItemRequest{
					ID:       id,
					Name:     "item-" + id,
					Price:    price(prices[rng.Intn(len(prices))]),
					Quantity: rng.Intn(4),
				})
			}
			require.NoError(t, s.CheckInvariants(), fmt.Sprintf("run %d step %d", run, step))
			require.NoError(t, s.CheckQuantities(), fmt.Sprintf("run %d step %d", run, step))
		}
	}
}
