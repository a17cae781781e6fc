package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/email"
	"github.com/Alijeyrad/medtrack_backend/pkg/events"
	"github.com/Alijeyrad/medtrack_backend/pkg/sns"
)

type recordingChannel struct {
	name string
	err  error

	mu   sync.Mutex
	got  []Message
	done chan struct{}
}

func newRecorder(name string, err error) *recordingChannel {
	return &recordingChannel{name: name, err: err, done: make(chan struct{}, 16)}
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	c.got = append(c.got, msg)
	c.mu.Unlock()
	c.done <- struct{}{}
	return c.err
}

func (c *recordingChannel) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.got...)
}

func waitFor(t *testing.T, c *recordingChannel, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("channel %s: timed out waiting for message %d", c.name, i+1)
		}
	}
}

func TestDispatcher_FansOutAndSwallowsFailures(t *testing.T) {
	failing := newRecorder("failing", errors.New("smtp down"))
	ok := newRecorder("ok", nil)

	d := NewDispatcher(Options{Workers: 2, QueueSize: 8}, failing, ok)
	d.Start()
	defer d.Stop(context.Background())

	d.Notify(context.Background(), Message{Kind: KindAppointmentStatus, Subject: "Update"})

	waitFor(t, failing, 1)
	waitFor(t, ok, 1)
	if got := ok.messages(); len(got) != 1 || got[0].Subject != "Update" {
		t.Errorf("ok channel got %+v", got)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	ch := newRecorder("rec", nil)
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1}, ch)

	// Not started, so the second message finds the queue full.
	d.Notify(context.Background(), Message{Subject: "first"})
	d.Notify(context.Background(), Message{Subject: "second"})

	d.Start()
	waitFor(t, ch, 1)
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got := ch.messages()
	if len(got) != 1 || got[0].Subject != "first" {
		t.Errorf("delivered %+v, want only the first message", got)
	}
}

func TestDispatcher_NotifyAfterStop(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Start()
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	// Must not panic on the closed queue.
	d.Notify(context.Background(), Message{Subject: "late"})
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

type panicChannel struct{}

func (panicChannel) Name() string                         { return "panic" }
func (panicChannel) Send(context.Context, Message) error { panic("boom") }

func TestDispatcher_DeliverRecoversPanics(t *testing.T) {
	ok := newRecorder("ok", nil)
	d := NewDispatcher(Options{}, panicChannel{}, ok)
	d.Deliver(context.Background(), Message{Subject: "x"})
	if len(ok.messages()) != 1 {
		t.Error("channel after a panicking one was not reached")
	}
}

type fakeEmail struct {
	sent []email.Message
}

func (f *fakeEmail) Send(_ context.Context, m email.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeEmail) Config() email.Config { return email.DefaultConfig() }

func TestEmailChannel(t *testing.T) {
	f := &fakeEmail{}
	ch := NewEmailChannel(f)

	if err := ch.Send(context.Background(), Message{Subject: "x"}); !errors.Is(err, ErrSkipped) {
		t.Fatalf("Send() without address error = %v, want ErrSkipped", err)
	}

	err := ch.Send(context.Background(), Message{
		Kind:      "appointment.booked",
		Subject:   "Appointment Confirmed",
		Body:      "Doctor: Dr. Rao\nDate: 2025-01-10 09:00",
		Recipient: Recipient{Email: "p1@example.com", Name: "Asha"},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(f.sent) != 1 || f.sent[0].To[0] != "p1@example.com" {
		t.Fatalf("sent = %+v", f.sent)
	}
	if !strings.Contains(f.sent[0].Text, "Dr. Rao") {
		t.Errorf("text body missing content: %q", f.sent[0].Text)
	}
	if f.sent[0].Kind != "appointment.booked" {
		t.Errorf("Kind = %q, want appointment.booked", f.sent[0].Kind)
	}
}

func TestEmailChannel_DisabledClientSkips(t *testing.T) {
	c, err := email.New(email.Config{Enabled: false})
	if err != nil {
		t.Fatalf("email.New() error = %v", err)
	}
	err = NewEmailChannel(c).Send(context.Background(), Message{
		Subject:   "Invoice issued",
		Body:      "Amount: 500 INR",
		Recipient: Recipient{Email: "p1@example.com"},
	})
	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("Send() error = %v, want ErrSkipped", err)
	}
}

type fakeSNS struct {
	targets []sns.Target
	bodies  []string
	attrs   []map[string]string
}

func (f *fakeSNS) Publish(_ context.Context, to sns.Target, _, body string, attrs map[string]string) (string, error) {
	f.targets = append(f.targets, to)
	f.bodies = append(f.bodies, body)
	f.attrs = append(f.attrs, attrs)
	return "mid", nil
}

func TestSNSChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("topic", func(t *testing.T) {
		f := &fakeSNS{}
		ch := NewSNSChannel(f, false, "IN")
		err := ch.Send(ctx, Message{Kind: KindOps, Body: "new booking", Recipient: Recipient{Topic: "arn:aws:sns:ap-south-1:1:ops"}})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if f.targets[0].TopicARN == "" || f.attrs[0]["kind"] != KindOps {
			t.Errorf("published %+v %v", f.targets[0], f.attrs[0])
		}
	})

	t.Run("phone disabled", func(t *testing.T) {
		ch := NewSNSChannel(&fakeSNS{}, false, "IN")
		err := ch.Send(ctx, Message{Body: "x", Recipient: Recipient{Phone: "9876543210"}})
		if !errors.Is(err, ErrSkipped) {
			t.Errorf("Send() error = %v, want ErrSkipped", err)
		}
	})

	t.Run("phone truncated", func(t *testing.T) {
		f := &fakeSNS{}
		ch := NewSNSChannel(f, true, "IN")
		err := ch.Send(ctx, Message{Body: strings.Repeat("a", 200), Recipient: Recipient{Phone: "9876543210"}})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if f.targets[0].Phone != "+919876543210" {
			t.Errorf("phone = %q", f.targets[0].Phone)
		}
		if len(f.bodies[0]) != smsLimit {
			t.Errorf("body length = %d, want %d", len(f.bodies[0]), smsLimit)
		}
		if f.attrs[0]["AWS.SNS.SMS.SMSType"] != "Transactional" {
			t.Errorf("attrs = %v", f.attrs[0])
		}
	})
}

func TestInAppChannel(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	ch := NewInAppChannel(s.Notifications)

	if err := ch.Send(ctx, Message{Subject: "x"}); !errors.Is(err, ErrSkipped) {
		t.Fatalf("Send() without user error = %v, want ErrSkipped", err)
	}
	err := ch.Send(ctx, Message{
		Kind:      KindInvoiceIssued,
		Subject:   "Invoice issued",
		Recipient: Recipient{UserID: "p1"},
		Data:      map[string]string{"invoice_id": "i1"},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	got, _ := s.Notifications.ListBy(ctx, store.ByUserID, "p1")
	if len(got) != 1 || got[0].Kind != KindInvoiceIssued || got[0].Read || got[0].Data["invoice_id"] != "i1" {
		t.Errorf("stored = %+v", got)
	}
}

// memBus delivers synchronously to matching subscribers.
type memBus struct {
	mu   sync.Mutex
	subs map[string]events.Handler
	err  error
}

func (b *memBus) Publish(ctx context.Context, subject string, data []byte) error {
	if b.err != nil {
		return b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for pattern, h := range b.subs {
		if events.Match(pattern, subject) {
			_ = h(ctx, events.Event{Subject: subject, Data: data})
		}
	}
	return nil
}

func (b *memBus) Subscribe(_ context.Context, pattern string, h events.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[string]events.Handler)
	}
	b.subs[pattern] = h
	return nil
}

func (b *memBus) Close() error { return nil }

type captured struct {
	mu   sync.Mutex
	got  []Message
	seen chan struct{}
}

func newCaptured() *captured { return &captured{seen: make(chan struct{}, 16)} }

func (c *captured) Notify(_ context.Context, msg Message) {
	c.mu.Lock()
	c.got = append(c.got, msg)
	c.mu.Unlock()
	c.seen <- struct{}{}
}

func (c *captured) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.got...)
}

func (c *captured) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i+1)
		}
	}
}

// blockingBus holds every publish until release is closed.
type blockingBus struct {
	memBus
	release chan struct{}
}

func (b *blockingBus) Publish(ctx context.Context, subject string, data []byte) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.memBus.Publish(ctx, subject, data)
}

func TestBusNotifier_RoundTripThroughRelay(t *testing.T) {
	ctx := context.Background()
	bus := &memBus{}
	local := newCaptured()
	fallback := newCaptured()

	if err := Relay(ctx, bus, local); err != nil {
		t.Fatalf("Relay() error = %v", err)
	}

	n := NewBusNotifier(bus, fallback, Options{})
	n.Start()
	n.Notify(ctx, Message{Kind: KindChatReply, Subject: "Doctor replied", Recipient: Recipient{UserID: "p1"}})
	if err := n.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got := local.messages()
	if len(got) != 1 || got[0].Recipient.UserID != "p1" {
		t.Errorf("relayed = %+v", got)
	}
	if len(fallback.messages()) != 0 {
		t.Errorf("fallback used on a healthy bus: %+v", fallback.messages())
	}
}

func TestBusNotifier_FallsBackOnPublishError(t *testing.T) {
	fallback := newCaptured()
	n := NewBusNotifier(&memBus{err: errors.New("nats: connection closed")}, fallback, Options{})
	n.Start()
	defer n.Stop(context.Background())

	n.Notify(context.Background(), Message{Kind: KindOps})
	fallback.wait(t, 1)
}

func TestBusNotifier_NotifyDoesNotWaitForPublish(t *testing.T) {
	ctx := context.Background()
	bus := &blockingBus{release: make(chan struct{})}
	local := newCaptured()
	if err := Relay(ctx, bus, local); err != nil {
		t.Fatalf("Relay() error = %v", err)
	}

	n := NewBusNotifier(bus, newCaptured(), Options{QueueSize: 4})
	n.Start()

	returned := make(chan struct{})
	go func() {
		n.Notify(ctx, Message{Kind: KindAppointmentBooked})
		n.Notify(ctx, Message{Kind: KindOps})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a stalled bus")
	}

	close(bus.release)
	local.wait(t, 2)
	if err := n.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestBusNotifier_FullQueueDeliversLocally(t *testing.T) {
	bus := &blockingBus{release: make(chan struct{})}
	defer close(bus.release)
	fallback := newCaptured()

	// Not started: nothing drains the queue.
	n := NewBusNotifier(bus, fallback, Options{QueueSize: 1})
	n.Notify(context.Background(), Message{Kind: KindOps})
	n.Notify(context.Background(), Message{Kind: KindOps})

	fallback.wait(t, 1)
	if got := len(fallback.messages()); got != 1 {
		t.Errorf("fallback got %d messages, want 1", got)
	}
}

func TestSubject(t *testing.T) {
	if got := Subject(KindInvoiceIssued); got != "medtrack.notify.invoice_issued" {
		t.Errorf("Subject() = %q", got)
	}
	if !events.Match(SubjectPattern, Subject("")) {
		t.Error("default subject does not match the relay pattern")
	}
}
