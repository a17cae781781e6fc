package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

// RequirePermission checks the caller's role against the RBAC policy.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		if err := auth.MustEnforce(c.Context(), authorize.Role(claims.Role), resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}
