package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	pasetotoken "github.com/Alijeyrad/medtrack_backend/pkg/paseto"
	"github.com/Alijeyrad/medtrack_backend/pkg/reqctx"
)

const LocalClaims = "claims"

// SessionValidator confirms that the session behind a token is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) (schema.Session, error)
}

// AuthRequired validates a Bearer PASETO access token and checks its session
// in the record store, so logout takes effect before the token expires.
func AuthRequired(mgr *pasetotoken.Manager, sessions SessionValidator) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}
		if claims.SessionID == "" {
			return fiber.ErrUnauthorized
		}

		sess, err := sessions.ValidateSession(c.Context(), claims.SessionID)
		if err != nil {
			slog.DebugContext(c.Context(), "session rejected", "session_id", claims.SessionID, "error", err)
			return fiber.ErrUnauthorized
		}
		if sess.UserID != claims.UserID || sess.Role != claims.Role {
			return fiber.ErrUnauthorized
		}

		c.Locals(LocalClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}

// ClaimsFromFiber returns the verified claims stored by AuthRequired.
func ClaimsFromFiber(c fiber.Ctx) (*pasetotoken.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(*pasetotoken.Claims)
	return claims, ok && claims != nil
}
