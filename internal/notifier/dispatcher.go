package notifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/pkg/observability"
	"github.com/Alijeyrad/medtrack_backend/pkg/reqctx"
)

const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
	outcomeDropped = "dropped"
)

type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

func OptionsFromConfig(c config.NotificationsConfig, m *observability.Metrics) Options {
	return Options{
		Workers:   c.Workers,
		QueueSize: c.QueueSize,
		Timeout:   time.Duration(c.TimeoutSeconds) * time.Second,
		Metrics:   m,
	}
}

type envelope struct {
	msg   Message
	attrs []any
}

// Dispatcher is a bounded worker pool. Notify enqueues without blocking and
// drops the message with a warning when the queue is full.
type Dispatcher struct {
	channels []Channel
	queue    chan envelope
	workers  int
	timeout  time.Duration
	metrics  *observability.Metrics
	log      *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(opts Options, channels ...Channel) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		channels: channels,
		queue:    make(chan envelope, opts.QueueSize),
		workers:  opts.Workers,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}
}

// Channels returns the names of the enabled channels.
func (d *Dispatcher) Channels() []string {
	out := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		out = append(out, ch.Name())
	}
	return out
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.log.Info("notifier: started", "workers", d.workers, "channels", d.Channels())
}

// Stop closes the queue and waits for queued messages to drain or ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	env := envelope{msg: msg, attrs: reqctx.LogAttrs(ctx)}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ctx, env, "closed")
		return
	}
	select {
	case d.queue <- env:
	default:
		d.drop(ctx, env, "queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, env envelope, reason string) {
	d.metrics.Notification(ctx, "queue", outcomeDropped)
	args := append([]any{"kind", env.msg.Kind, "reason", reason}, env.attrs...)
	d.log.Warn("notifier: message dropped", args...)
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for env := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		d.deliver(ctx, env)
		cancel()
	}
}

// Deliver fans msg out synchronously. Failures are logged and swallowed.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message) {
	d.deliver(ctx, envelope{msg: msg, attrs: reqctx.LogAttrs(ctx)})
}

func (d *Dispatcher) deliver(ctx context.Context, env envelope) {
	for _, ch := range d.channels {
		err := d.send(ctx, ch, env.msg)
		switch {
		case err == nil:
			d.metrics.Notification(ctx, ch.Name(), outcomeSent)
		case errors.Is(err, ErrSkipped):
			d.metrics.Notification(ctx, ch.Name(), outcomeSkipped)
		default:
			d.metrics.Notification(ctx, ch.Name(), outcomeFailed)
			args := append([]any{"channel", ch.Name(), "kind", env.msg.Kind, "error", err}, env.attrs...)
			d.log.Warn("notifier: delivery failed", args...)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("channel panicked")
			d.log.Error("notifier: channel panic", "channel", ch.Name(), "panic", r)
		}
	}()
	return ch.Send(ctx, msg)
}
