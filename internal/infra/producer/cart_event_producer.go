package producer

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"time"

	evt_model "github.com/RoyceAzure/lab/cartstore/internal/domain/model/event"
	"github.com/RoyceAzure/lab/cartstore/internal/infra/producer/balancer"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Writer is the part of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers       []string
	Topic         string
	Partitions    int
	RetryAttempts int
	BatchTimeout  time.Duration
}

// CartEventProducer publishes cart events keyed by session id.
type CartEventProducer struct {
	writer        Writer
	topic         string
	retryAttempts int
	retryBackoff  time.Duration
	closed        atomic.Bool
}

const defaultRetryBackoff = 50 * time.Millisecond

// NewCartEventProducer 同步發送，會 block 到訊息寫入
func NewCartEventProducer(cfg Config, logger zerolog.Logger) *CartEventProducer {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     balancer.NewSessionBalancer(cfg.Partitions),
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		// 重試只在 Publish 做一層
		MaxAttempts: 1,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka producer error: "+msg, args...)
		}),
		Compression: kafka.Snappy,
	}

	return NewCartEventProducerWithWriter(w, cfg.Topic, cfg.RetryAttempts)
}

func NewCartEventProducerWithWriter(w Writer, topic string, retryAttempts int) *CartEventProducer {
	if w == nil {
		panic("CartEventProducer dependency writer is nil")
	}
	return &CartEventProducer{
		writer:        w,
		topic:         topic,
		retryAttempts: retryAttempts,
		retryBackoff:  defaultRetryBackoff,
	}
}

// Publish implements store.Publisher.
func (p *CartEventProducer) Publish(ctx context.Context, evt evt_model.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	msg, err := prepareEventMessage(evt)
	if err != nil {
		return NewKafkaError("Produce", p.topic, err)
	}

	backoff := p.retryBackoff
	for attempt := 0; attempt <= p.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewKafkaError("Produce", p.topic, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err = p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		if !IsTemporaryError(err) {
			break
		}
	}

	return NewKafkaError("Produce", p.topic, err)
}

func (p *CartEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func prepareEventMessage(evt evt_model.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(evt.GetAggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   "event_type",
				Value: []byte(evt.Type()),
			},
		},
	}, nil
}
