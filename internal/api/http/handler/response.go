package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/middleware"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func forbidden(c fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
}

func forbiddenMsg(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}


func paymentRequired(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": msg})
}

func tooManyRequests(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msg})
}

func tooLarge(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": msg})
}

// internalError logs err and hides it from the client.
func internalError(c fiber.Ctx, err error) error {
	rid, _ := middleware.RequestIDFromFiber(c)
	slog.ErrorContext(c.Context(), "request failed",
		"method", c.Method(), "path", c.Path(), "request_id", rid, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// bindError turns a bind or validation failure into a client message.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s is %s", fe.Field(), fe.Tag())
	}
	return "invalid request body"
}

// actor returns the verified caller, set by the auth middleware.
func actor(c fiber.Ctx) (id, role string, found bool) {
	claims, found := middleware.ClaimsFromFiber(c)
	if !found {
		return "", "", false
	}
	return claims.UserID, claims.Role, true
}
