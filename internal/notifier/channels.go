package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/email"
	"github.com/Alijeyrad/medtrack_backend/pkg/sms"
	"github.com/Alijeyrad/medtrack_backend/pkg/sns"
)

// smsLimit is the single-segment length SNS text messages are cut to.
const smsLimit = 160

type EmailSender interface {
	Send(ctx context.Context, m email.Message) error
	Config() email.Config
}

type EmailChannel struct {
	client EmailSender
}

func NewEmailChannel(c EmailSender) *EmailChannel { return &EmailChannel{client: c} }

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	if msg.Recipient.Email == "" {
		return ErrSkipped
	}
	m := email.BuildNotificationEmail(c.client.Config(), email.NotificationData{
		To:        msg.Recipient.Email,
		Kind:      msg.Kind,
		Name:      msg.Recipient.Name,
		Title:     msg.Subject,
		Lines:     strings.Split(msg.Body, "\n"),
		ActionURL: msg.Data["url"],
	})
	if err := c.client.Send(ctx, m); err != nil {
		if errors.Is(err, email.ErrDisabled) {
			return ErrSkipped
		}
		return err
	}
	return nil
}

type SMSSender interface {
	SendNotice(ctx context.Context, phone, title, body string) error
}

// SMSChannel sends through the sms.ir template API.
type SMSChannel struct {
	client SMSSender
}

func NewSMSChannel(c SMSSender) *SMSChannel { return &SMSChannel{client: c} }

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Send(ctx context.Context, msg Message) error {
	if msg.Recipient.Phone == "" {
		return ErrSkipped
	}
	return c.client.SendNotice(ctx, msg.Recipient.Phone, msg.Subject, msg.Body)
}

type SNSPublisher interface {
	Publish(ctx context.Context, to sns.Target, subject, body string, attrs map[string]string) (string, error)
}

// SNSChannel publishes to the recipient's topic. With phones enabled it
// also texts recipients that have no topic, as transactional SMS.
type SNSChannel struct {
	pub    SNSPublisher
	phones bool
	region string
}

func NewSNSChannel(pub SNSPublisher, phones bool, region string) *SNSChannel {
	return &SNSChannel{pub: pub, phones: phones, region: region}
}

func (c *SNSChannel) Name() string { return "sns" }

func (c *SNSChannel) Send(ctx context.Context, msg Message) error {
	attrs := map[string]string{"kind": msg.Kind}
	if msg.Recipient.Email != "" {
		attrs["email"] = msg.Recipient.Email
	}

	switch {
	case msg.Recipient.Topic != "":
		_, err := c.pub.Publish(ctx, sns.Target{TopicARN: msg.Recipient.Topic}, msg.Subject, msg.Body, attrs)
		return err
	case c.phones && msg.Recipient.Phone != "":
		phone, err := sms.Normalize(msg.Recipient.Phone, c.region)
		if err != nil {
			return err
		}
		body := msg.Body
		if r := []rune(body); len(r) > smsLimit {
			body = string(r[:smsLimit])
		}
		_, err = c.pub.Publish(ctx, sns.Target{Phone: phone}, "", body, map[string]string{
			"AWS.SNS.SMS.SMSType": "Transactional",
		})
		return err
	default:
		return ErrSkipped
	}
}

// InAppChannel stores the message in the user's portal inbox.
type InAppChannel struct {
	table *store.Table[schema.Notification]
	now   func() time.Time
}

func NewInAppChannel(t *store.Table[schema.Notification]) *InAppChannel {
	return &InAppChannel{table: t, now: time.Now}
}

func (c *InAppChannel) Name() string { return "inapp" }

func (c *InAppChannel) Send(ctx context.Context, msg Message) error {
	if msg.Recipient.UserID == "" {
		return ErrSkipped
	}
	n := schema.Notification{
		ID:     schema.NewID(),
		UserID: msg.Recipient.UserID,
		Kind:   msg.Kind,
		Title:  msg.Subject,
		Body:   msg.Body,
		Data:   msg.Data,
	}
	n.Touch(c.now().UTC())
	if err := c.table.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// LogChannel writes the message to the log. It stands in for real
// channels in development.
type LogChannel struct {
	log *slog.Logger
}

func NewLogChannel(l *slog.Logger) *LogChannel {
	if l == nil {
		l = slog.Default()
	}
	return &LogChannel{log: l}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(ctx context.Context, msg Message) error {
	to := msg.Recipient.Topic
	for _, v := range []string{msg.Recipient.Email, msg.Recipient.Phone, msg.Recipient.UserID} {
		if to == "" {
			to = v
		}
	}
	c.log.InfoContext(ctx, "notifier: simulated delivery",
		"kind", msg.Kind,
		"to", to,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
