package store

import (
	"context"

	evt_model "github.com/RoyceAzure/lab/cartstore/internal/domain/model/event"
)

// Publisher receives one event per applied transition.
//
//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks
type Publisher interface {
	Publish(ctx context.Context, evt evt_model.Event) error
}
