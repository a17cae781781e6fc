package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/Alijeyrad/medtrack_backend/config"
)

// Mode picks between encrypted (v4.local) and signed (v4.public) access tokens.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModePublic Mode = "public"
)

// Keys holds the material for one Mode. A verify-only deployment in public
// mode carries Public without Secret.
type Keys struct {
	Mode      Mode
	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

// EphemeralKeys generates fresh keys for mode. Tokens issued with them do
// not survive a restart.
func EphemeralKeys(mode Mode) (Keys, error) {
	switch mode {
	case ModeLocal:
		k := paseto.NewV4SymmetricKey()
		return Keys{Mode: ModeLocal, Symmetric: &k}, nil
	case ModePublic:
		sk := paseto.NewV4AsymmetricSecretKey()
		pk := sk.Public()
		return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}, nil
	}
	return Keys{}, ErrConfig{Msg: "unknown mode " + string(mode) + " (use local|public)"}
}

// KeysFromConfig parses the configured hex keys. Missing keys fall back to
// EphemeralKeys unless production is set.
func KeysFromConfig(p config.PasetoConfig, production bool) (Keys, error) {
	mode := Mode(p.Mode)
	local := strings.TrimSpace(p.LocalKeyHex)
	secret := strings.TrimSpace(p.SecretKeyHex)
	public := strings.TrimSpace(p.PublicKeyHex)

	switch mode {
	case ModeLocal:
		if local == "" {
			return missingKeys(mode, production, "local_key_hex")
		}
		k, err := paseto.V4SymmetricKeyFromHex(local)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "local_key_hex: " + err.Error()}
		}
		return Keys{Mode: ModeLocal, Symmetric: &k}, nil

	case ModePublic:
		if secret == "" && public == "" {
			return missingKeys(mode, production, "secret_key_hex or public_key_hex")
		}
		keys := Keys{Mode: ModePublic}
		if secret != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secret)
			if err != nil {
				return Keys{}, ErrConfig{Msg: "secret_key_hex: " + err.Error()}
			}
			pk := sk.Public()
			keys.Secret, keys.Public = &sk, &pk
		}
		if public != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(public)
			if err != nil {
				return Keys{}, ErrConfig{Msg: "public_key_hex: " + err.Error()}
			}
			if keys.Public != nil && keys.Public.ExportHex() != pk.ExportHex() {
				return Keys{}, ErrConfig{Msg: "public_key_hex does not match secret_key_hex"}
			}
			keys.Public = &pk
		}
		return keys, nil
	}
	return Keys{}, ErrConfig{Msg: "unknown mode " + p.Mode + " (use local|public)"}
}

func missingKeys(mode Mode, production bool, field string) (Keys, error) {
	if production {
		return Keys{}, ErrConfig{Msg: field + " is required in production"}
	}
	return EphemeralKeys(mode)
}
