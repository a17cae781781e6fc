package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/Alijeyrad/medtrack_backend/pkg/constants"
	"github.com/Alijeyrad/medtrack_backend/pkg/events"
)

// SubjectPattern matches every notification subject.
var SubjectPattern = constants.SubjectPrefix + ".notify.*"

func Subject(kind string) string {
	if kind == "" {
		kind = KindOps
	}
	return constants.SubjectPrefix + ".notify." + kind
}

// BusNotifier publishes messages to the event bus so any instance running
// the relay can deliver them. Publishing happens on a background goroutine;
// a full queue or a failed publish falls back to local delivery.
type BusNotifier struct {
	bus      events.Bus
	fallback Notifier
	timeout  time.Duration
	queue    chan Message

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

func NewBusNotifier(bus events.Bus, fallback Notifier, opts Options) *BusNotifier {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &BusNotifier{
		bus:      bus,
		fallback: fallback,
		timeout:  opts.Timeout,
		queue:    make(chan Message, opts.QueueSize),
		done:     make(chan struct{}),
	}
}

func (n *BusNotifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.closed {
		return
	}
	n.started = true
	go n.publishLoop()
}

// Stop publishes what is queued, or gives up when ctx ends.
func (n *BusNotifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	started := n.started
	close(n.queue)
	n.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *BusNotifier) Notify(ctx context.Context, msg Message) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.fallback.Notify(ctx, msg)
		return
	}
	select {
	case n.queue <- msg:
	default:
		slog.WarnContext(ctx, "notifier: bus queue full, delivering locally", "kind", msg.Kind)
		n.fallback.Notify(ctx, msg)
	}
}

func (n *BusNotifier) publishLoop() {
	defer close(n.done)
	for msg := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		n.publish(ctx, msg)
		cancel()
	}
}

func (n *BusNotifier) publish(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err == nil {
		err = n.bus.Publish(ctx, Subject(msg.Kind), data)
	}
	if err != nil {
		slog.Warn("notifier: bus publish failed, delivering locally", "kind", msg.Kind, "error", err)
		n.fallback.Notify(ctx, msg)
	}
}

// Relay feeds bus messages into the local dispatcher.
func Relay(ctx context.Context, bus events.Bus, into Notifier) error {
	return bus.Subscribe(ctx, SubjectPattern, func(ctx context.Context, ev events.Event) error {
		var msg Message
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Subject, err)
		}
		into.Notify(ctx, msg)
		return nil
	})
}
