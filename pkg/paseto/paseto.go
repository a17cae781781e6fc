package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/Alijeyrad/medtrack_backend/config"
)

type Config struct {
	Mode Mode

	Issuer   string
	Audience string

	AccessTTL time.Duration

	Implicit []byte
}

type Manager struct {
	cfg   Config
	keys  Keys
	parse paseto.Parser
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Mode != keys.Mode {
		return nil, ErrConfig{Msg: "cfg.Mode must match keys.Mode"}
	}
	if cfg.Issuer == "" {
		return nil, ErrConfig{Msg: "Issuer is required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Msg: "Audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))
	p.AddRule(paseto.NotExpired())

	return &Manager{cfg: cfg, keys: keys, parse: p}, nil
}

// NewPasetoManager builds a manager from the central config. Outside
// production a missing key is replaced by an ephemeral one.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto

	keys, err := KeysFromConfig(p, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	return New(Config{
		Mode:      Mode(p.Mode),
		Issuer:    p.Issuer,
		Audience:  p.Audience,
		AccessTTL: time.Duration(p.AccessTTLMinutes) * time.Minute,
	}, keys)
}

func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// IssueAccess mints an access token carrying the user id, role and session id.
func (m *Manager) IssueAccess(userID, role, sessionID string) (string, error) {
	now := time.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(randHex(16))
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(m.cfg.AccessTTL))
	tok.SetSubject(userID)

	tok.SetString("uid", userID)
	tok.SetString("role", role)
	if sessionID != "" {
		tok.SetString("sid", sessionID)
	}

	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return "", ErrConfig{Msg: "missing symmetric key"}
		}
		return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), nil
	case ModePublic:
		if m.keys.Secret == nil {
			return "", ErrConfig{Msg: "missing secret key"}
		}
		return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
	default:
		return "", ErrConfig{Msg: "unknown mode"}
	}
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	var (
		tok *paseto.Token
		err error
	)

	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "missing symmetric key"}
		}
		tok, err = m.parse.ParseV4Local(*m.keys.Symmetric, tokenStr, m.cfg.Implicit)
	case ModePublic:
		if m.keys.Public == nil {
			return nil, ErrConfig{Msg: "missing public key"}
		}
		tok, err = m.parse.ParseV4Public(*m.keys.Public, tokenStr, m.cfg.Implicit)
	default:
		return nil, ErrConfig{Msg: "unknown mode"}
	}
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := extractClaims(tok, m.cfg.Issuer, m.cfg.Audience)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	return claims, nil
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func extractClaims(tok *paseto.Token, iss, aud string) (*Claims, error) {
	out := &Claims{Issuer: iss, Audience: aud}

	var err error
	if out.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if out.Subject, err = tok.GetSubject(); err != nil {
		return nil, err
	}
	if out.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if out.NotBefore, err = tok.GetNotBefore(); err != nil {
		return nil, err
	}
	if out.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}
	if out.UserID, err = tok.GetString("uid"); err != nil {
		return nil, err
	}
	if out.Role, err = tok.GetString("role"); err != nil {
		return nil, err
	}
	// sid is optional
	if sid, err := tok.GetString("sid"); err == nil {
		out.SessionID = sid
	}

	return out, nil
}
