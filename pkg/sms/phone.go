package sms

import (
	"errors"
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion applies to numbers written without a country code.
const DefaultRegion = "IN"

var ErrInvalidPhone = errors.New("invalid phone number")

// Normalize parses a user-entered number and returns it in E.164 form.
func Normalize(raw, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
