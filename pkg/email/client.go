package email

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/Alijeyrad/medtrack_backend/config"
	"gopkg.in/gomail.v2"
)

type Client struct {
	cfg Config
}

// NewFromCentral creates a new email client from central config
func NewFromCentral(cfg config.EmailConfig) (*Client, error) {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) (*Client, error) {
	if cfg.Enabled && strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, invalid("smtp host is required when email is enabled")
	}
	return &Client{cfg: cfg}, nil
}

// Config returns the client's settings; templates read branding from it.
func (c *Client) Config() Config { return c.cfg }

func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}

	msg, err := buildMessage(c.cfg.From, m)
	if err != nil {
		return err
	}

	d := c.newDialer()

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	// Respect ctx deadline if it's sooner than our config timeout.
	wait := c.cfg.SMTPTimeout()
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return &SendError{Host: c.cfg.SMTPHost, Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func (c *Client) newDialer() *gomail.Dialer {
	d := gomail.NewDialer(c.cfg.SMTPHost, c.cfg.SMTPPort, c.cfg.SMTPUsername, c.cfg.SMTPPassword)

	// port 465 is implicit TLS; other ports upgrade with STARTTLS
	d.SSL = c.cfg.SMTPUseTLS && c.cfg.SMTPPort == 465
	d.TLSConfig = &tls.Config{ServerName: c.cfg.SMTPHost, MinVersion: tls.VersionTLS12}

	return d
}

func buildMessage(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, invalid("from is required")
	}
	to := cleanAddrs(m.To)
	if len(to) == 0 {
		return nil, invalid("no recipient")
	}
	subj := strings.TrimSpace(m.Subject)
	if subj == "" {
		return nil, invalid("subject is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subj)
	if kind := strings.TrimSpace(m.Kind); kind != "" {
		msg.SetHeader(KindHeader, kind)
	}

	hasText := strings.TrimSpace(m.Text) != ""
	hasHTML := strings.TrimSpace(m.HTML) != ""
	switch {
	case hasText && hasHTML:
		msg.SetBody("text/plain", m.Text)
		msg.AddAlternative("text/html", m.HTML)
	case hasHTML:
		msg.SetBody("text/html", m.HTML)
	case hasText:
		msg.SetBody("text/plain", m.Text)
	default:
		return nil, invalid("empty body")
	}
	return msg, nil
}

func cleanAddrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
