package logger

import (
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrWriterClosed = errors.New("kafka log writer is closed")

// MessageWriter is the part of *kafka.Writer used for log shipping.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter ships zerolog lines to a kafka topic. Use it as an extra
// writer next to stdout.
type KafkaWriter struct {
	w      MessageWriter
	logId  atomic.Uint64
	closed atomic.Bool
}

// NewKafkaWriter 非同步發送，不會 block 寫 log 的 goroutine
func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	return NewKafkaWriterWith(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		Async:        true,
	})
}

func NewKafkaWriterWith(w MessageWriter) *KafkaWriter {
	if w == nil {
		panic("KafkaWriter dependency writer is nil")
	}
	return &KafkaWriter{w: w}
}

func (kw *KafkaWriter) Write(p []byte) (int, error) {
	if kw.closed.Load() {
		return 0, ErrWriterClosed
	}

	// key 用流水號平均分配分區
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, kw.logId.Add(1))

	// zerolog 會重用 p
	value := make([]byte, len(p))
	copy(value, p)

	if err := kw.w.WriteMessages(context.Background(), kafka.Message{Key: key, Value: value}); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (kw *KafkaWriter) Close() error {
	if !kw.closed.CompareAndSwap(false, true) {
		return nil
	}
	return kw.w.Close()
}
