package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/segmentio/kafka-go"
)

var ErrSinkClosed = errors.New("notification sink is closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaOptions struct {
	Brokers []string
	Topic   string
}

// KafkaSink publishes notifications as JSON, keyed by recipient so each user's
// events stay ordered within a partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
	log    *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewKafkaSink(opts KafkaOptions, log *slog.Logger) (*KafkaSink, error) {
	if len(opts.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	errorLogger := kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error("kafka writer", slog.String("details", fmt.Sprintf(msg, args...)))
	})
	writer := &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  errorLogger,
	}
	return newKafkaSink(writer, opts.Topic, log), nil
}

func newKafkaSink(writer messageWriter, topic string, log *slog.Logger) *KafkaSink {
	if log == nil {
		log = slog.Default()
	}
	return &KafkaSink{writer: writer, topic: topic, log: log}
}

func (s *KafkaSink) Notify(ctx context.Context, n domain.Notification) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(n.UserID.String()),
		Value:   value,
		Time:    n.CreatedAt,
		Headers: []kafka.Header{{Key: "type", Value: []byte(n.Type)}},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.writer.Close()
}
