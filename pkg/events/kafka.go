package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const subjectHeader = "subject"

type KafkaConfig struct {
	Brokers string
	GroupID string
	Topic   string
}

// KafkaBus carries every subject on one topic. The subject travels as the
// message key and a header; subscribers filter on it.
type KafkaBus struct {
	cfg     KafkaConfig
	brokers []string
	writer  *kafka.Writer

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafka(cfg KafkaConfig) (*KafkaBus, error) {
	brokers := SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}

	return &KafkaBus{
		cfg:     cfg,
		brokers: brokers,
		writer:  newWriter(brokers, cfg.Topic),
	}, nil
}

// newWriter returns an async writer: WriteMessages only queues the batch and
// delivery failures surface through Completion.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           10 * time.Millisecond,
		Completion:             logFailedWrites,
	}
}

func logFailedWrites(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		slog.Error("kafka publish failed", "subject", subjectOf(m), "error", err)
	}
}

func (b *KafkaBus) Publish(ctx context.Context, subject string, data []byte) error {
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(subject),
		Value:   data,
		Headers: []kafka.Header{{Key: subjectHeader, Value: []byte(subject)}},
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", subject, err)
	}
	return nil
}

func (b *KafkaBus) Subscribe(ctx context.Context, pattern string, h Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		GroupID:  b.cfg.GroupID,
		Topic:    b.cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	b.mu.Lock()
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	go func() {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				slog.Error("kafka read error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			subject := subjectOf(msg)
			if !Match(pattern, subject) {
				continue
			}
			if err := h(ctx, Event{Subject: subject, Data: msg.Value}); err != nil {
				slog.Warn("event handler failed", "subject", subject, "error", err)
			}
		}
	}()
	return nil
}

func (b *KafkaBus) Close() error {
	b.mu.Lock()
	readers := b.readers
	b.readers = nil
	b.mu.Unlock()

	errs := []error{b.writer.Close()}
	for _, r := range readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

func subjectOf(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == subjectHeader {
			return string(h.Value)
		}
	}
	return string(msg.Key)
}

// SplitBrokers turns "a:9092, b:9092" into a clean list.
func SplitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
