// Package events is a small publish/subscribe abstraction over NATS and
// Kafka. Subjects are dot separated; subscriptions accept NATS style
// wildcards ("*" for one token, ">" for the rest).
package events

import (
	"context"
	"strings"
)

// Event is one message received from the bus.
type Event struct {
	Subject string
	Data    []byte
}

type Handler func(ctx context.Context, ev Event) error

// Bus publishes and subscribes to subjects.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
	// Subscribe delivers matching events to h until ctx is done or the bus
	// closes. Handler errors are logged by the bus and do not stop delivery.
	Subscribe(ctx context.Context, pattern string, h Handler) error
	Close() error
}

// Match reports whether subject matches a NATS style pattern.
func Match(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")

	for i, tok := range p {
		if tok == ">" {
			return len(s) > i
		}
		if i >= len(s) {
			return false
		}
		if tok != "*" && tok != s[i] {
			return false
		}
	}
	return len(p) == len(s)
}
