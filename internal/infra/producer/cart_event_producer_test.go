package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/cartstore/internal/domain/model/event"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	errs   []error
	calls  int
	msgs   []kafka.Message
	closed int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return err
		}
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func sampleEvent() evt_model.Event {
	item := model.CartItem{ID: "1", Name: "Laptop", Price: decimal.RequireFromString("999.99"), Quantity: 1}
	snapshot := model.CartState{Items: []model.CartItem{item}, TotalQuantity: 1, TotalPrice: item.Price}
	evt := evt_model.NewCartItemAddedEvent("session-1", item, 1, false, snapshot)
	evt.SetVersion(7)
	return evt
}

func TestPublish_WritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := NewCartEventProducerWithWriter(w, "cart-events", 3)

	err := p.Publish(context.Background(), sampleEvent())

	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "session-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(evt_model.CartItemAddedEventName), string(msg.Headers[0].Value))

	var decoded evt_model.CartItemAddedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "session-1", decoded.AggregateID)
	assert.EqualValues(t, 7, decoded.Version)
	assert.True(t, decimal.RequireFromString("999.99").Equal(decoded.Snapshot.TotalPrice))
}

func TestPublish_RetriesTemporaryErrors(t *testing.T) {
	w := &fakeWriter{errs: []error{kafka.LeaderNotAvailable, kafka.RequestTimedOut}}
	p := NewCartEventProducerWithWriter(w, "cart-events", 3)
	p.retryBackoff = time.Millisecond

	err := p.Publish(context.Background(), sampleEvent())

	require.NoError(t, err)
	assert.Equal(t, 3, w.calls)
	assert.Len(t, w.msgs, 1)
}

func TestPublish_GivesUpAfterRetries(t *testing.T) {
	w := &fakeWriter{errs: []error{kafka.LeaderNotAvailable, kafka.LeaderNotAvailable, kafka.LeaderNotAvailable}}
	p := NewCartEventProducerWithWriter(w, "cart-events", 2)
	p.retryBackoff = time.Millisecond

	err := p.Publish(context.Background(), sampleEvent())

	assert.ErrorIs(t, err, kafka.LeaderNotAvailable)
	assert.Equal(t, 3, w.calls)
}

func TestPublish_BackoffStopsOnCancel(t *testing.T) {
	w := &fakeWriter{errs: []error{kafka.LeaderNotAvailable}}
	p := NewCartEventProducerWithWriter(w, "cart-events", 3)
	p.retryBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Publish(ctx, sampleEvent())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, w.calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPublish_StopsOnFatalError(t *testing.T) {
	w := &fakeWriter{errs: []error{kafka.TopicAuthorizationFailed}}
	p := NewCartEventProducerWithWriter(w, "cart-events", 3)

	err := p.Publish(context.Background(), sampleEvent())

	var kErr *KafkaError
	require.True(t, errors.As(err, &kErr))
	assert.Equal(t, "cart-events", kErr.Topic)
	assert.ErrorIs(t, err, kafka.TopicAuthorizationFailed)
	assert.Equal(t, 1, w.calls)
}

func TestPublish_AfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewCartEventProducerWithWriter(w, "cart-events", 3)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Publish(context.Background(), sampleEvent()), ErrProducerClosed)
	assert.Equal(t, 1, w.closed)
}

func TestIsTemporaryError(t *testing.T) {
	assert.True(t, IsTemporaryError(kafka.NotLeaderForPartition))
	assert.False(t, IsTemporaryError(kafka.TopicAuthorizationFailed))
	assert.False(t, IsTemporaryError(context.Canceled))
	assert.False(t, IsTemporaryError(nil))
	assert.True(t, IsTemporaryError(errors.New("read tcp: i/o timeout")))
}
