package model

import (
	"time"

	"github.com/google/uuid"
)

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
	// 同一個 session 內單調遞增，consumer 用來排序
	Version uint64 `json:"version"`
}

func NewBaseEvent(aggregateID string, eventType EventType) *BaseEvent {
	return &BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		CreatedAt:   time.Now().UTC(),
		EventType:   eventType,
	}
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

func (e *BaseEvent) GetAggregateID() string {
	return e.AggregateID
}

func (e *BaseEvent) GetVersion() uint64 {
	return e.Version
}

func (e *BaseEvent) SetVersion(v uint64) {
	e.Version = v
}

type EventType string

const (
	CartItemAddedEventName       EventType = "CartItemAdded"
	CartItemRemovedEventName     EventType = "CartItemRemoved"
	CartQuantityUpdatedEventName EventType = "CartQuantityUpdated"
	CartClearedEventName         EventType = "CartCleared"
)

type Event interface {
	Type() EventType
	GetID() string
	GetAggregateID() string
	GetVersion() uint64
	SetVersion(v uint64)
}
