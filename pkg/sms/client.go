package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/Alijeyrad/medtrack_backend/config"
)

var ErrMissingField = errors.New("sms: missing field")

// Client sends templated SMS through sms.ir. A disabled client no-ops.
type Client struct {
	client     *smsir.Client
	enabled    bool
	templateID string
	region     string
}

// NewFromConfig creates a new SMS client from the application configuration.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	region := cfg.DefaultRegion
	if region == "" {
		region = DefaultRegion
	}
	if !cfg.Enabled {
		return &Client{enabled: false, region: region}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}
	if cfg.SMSIR.TemplateID == "" {
		return nil, fmt.Errorf("sms.ir template id required when SMS enabled")
	}

	return &Client{
		client:     smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey),
		enabled:    true,
		templateID: cfg.SMSIR.TemplateID,
		region:     region,
	}, nil
}

// SendNotice sends a short notice through the configured template. The
// template must declare "title" and "body" parameters. The phone number is
// normalised to E.164 first.
func (c *Client) SendNotice(ctx context.Context, phone, title, body string) error {
	if !c.enabled {
		return nil
	}
	if phone == "" {
		return fmt.Errorf("%w: phone", ErrMissingField)
	}
	if body == "" {
		return fmt.Errorf("%w: body", ErrMissingField)
	}

	mobile, err := Normalize(phone, c.region)
	if err != nil {
		return err
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     mobile,
		TemplateID: c.templateID,
		Parameters: []smsir.UltraFastParameter{
			{Key: "title", Value: title},
			{Key: "body", Value: body},
		},
	}
	if _, err := c.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

func (c *Client) IsEnabled() bool {
	return c.enabled
}
