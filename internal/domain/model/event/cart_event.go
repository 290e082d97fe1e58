package model

import (
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
)

// aggregateID 一律為 session id，一個 session 只會有一個購物車

type CartItemAddedEvent struct {
	BaseEvent
	Item     model.CartItem  `json:"item"`
	Added    int             `json:"added"`
	Merged   bool            `json:"merged"`
	Snapshot model.CartState `json:"snapshot"`
}

func NewCartItemAddedEvent(sessionID string, item model.CartItem, added int, merged bool, snapshot model.CartState) *CartItemAddedEvent {
	return &CartItemAddedEvent{
		BaseEvent: *NewBaseEvent(sessionID, CartItemAddedEventName),
		Item:      item,
		Added:     added,
		Merged:    merged,
		Snapshot:  snapshot,
	}
}

func (e *CartItemAddedEvent) Type() EventType {
	return CartItemAddedEventName
}

type CartItemRemovedEvent struct {
	BaseEvent
	Item     model.CartItem  `json:"item"`
	Snapshot model.CartState `json:"snapshot"`
}

func NewCartItemRemovedEvent(sessionID string, item model.CartItem, snapshot model.CartState) *CartItemRemovedEvent {
	return &CartItemRemovedEvent{
		BaseEvent: *NewBaseEvent(sessionID, CartItemRemovedEventName),
		Item:      item,
		Snapshot:  snapshot,
	}
}

func (e *CartItemRemovedEvent) Type() EventType {
	return CartItemRemovedEventName
}

type CartQuantityUpdatedEvent struct {
	BaseEvent
	ItemID      string          `json:"item_id"`
	OldQuantity int             `json:"old_quantity"`
	NewQuantity int             `json:"new_quantity"`
	Snapshot    model.CartState `json:"snapshot"`
}

func NewCartQuantityUpdatedEvent(sessionID, itemID string, oldQty, newQty int, snapshot model.CartState) *CartQuantityUpdatedEvent {
	return &CartQuantityUpdatedEvent{
		BaseEvent:   *NewBaseEvent(sessionID, CartQuantityUpdatedEventName),
		ItemID:      itemID,
		OldQuantity: oldQty,
		NewQuantity: newQty,
		Snapshot:    snapshot,
	}
}

func (e *CartQuantityUpdatedEvent) Type() EventType {
	return CartQuantityUpdatedEventName
}

type CartClearedEvent struct {
	BaseEvent
	Snapshot model.CartState `json:"snapshot"`
}

func NewCartClearedEvent(sessionID string, snapshot model.CartState) *CartClearedEvent {
	return &CartClearedEvent{
		BaseEvent: *NewBaseEvent(sessionID, CartClearedEventName),
		Snapshot:  snapshot,
	}
}

func (e *CartClearedEvent) Type() EventType {
	return CartClearedEventName
}
