package pasetotoken

import "time"

// Claims is the app-facing token payload.
type Claims struct {
	UserID    string
	Role      string
	SessionID string

	Issuer   string
	Audience string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
	Subject   string
}

func (c *Claims) GetUserID() string    { return c.UserID }
func (c *Claims) GetRole() string      { return c.Role }
func (c *Claims) GetSessionID() string { return c.SessionID }

func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
