package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type NatsBus struct {
	nc    *nats.Conn
	queue string
}

// NewNats wraps an established connection. Close drains it. With a non-empty
// queue, subscribers on every instance share one queue group so each event
// is handled once.
func NewNats(nc *nats.Conn, queue string) *NatsBus {
	return &NatsBus{nc: nc, queue: queue}
}

func (b *NatsBus) Publish(_ context.Context, subject string, data []byte) error {
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

func (b *NatsBus) Subscribe(ctx context.Context, pattern string, h Handler) error {
	cb := func(msg *nats.Msg) {
		if err := h(ctx, Event{Subject: msg.Subject, Data: msg.Data}); err != nil {
			slog.Warn("event handler failed", "subject", msg.Subject, "error", err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if b.queue != "" {
		sub, err = b.nc.QueueSubscribe(pattern, b.queue, cb)
	} else {
		sub, err = b.nc.Subscribe(pattern, cb)
	}
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", pattern, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

func (b *NatsBus) Close() error {
	return b.nc.Drain()
}
