package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medtrack_backend/internal/service/auth"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return conflict(c, err.Error())
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidPhone),
		errors.Is(err, auth.ErrInvalidName),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrUnknownRole):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrAccountLocked):
		return tooManyRequests(c, err.Error())
	case errors.Is(err, auth.ErrSessionNotFound):
		return unauthorized(c)
	default:
		return internalError(c, err)
	}
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body struct {
		Name     string `json:"name" validate:"required,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Phone    string `json:"phone"`
		Password string `json:"password" validate:"required"`
		Age      int    `json:"age" validate:"gte=0,lte=130"`
		Gender   string `json:"gender"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	p, err := h.svc.RegisterPatient(c.Context(), auth.RegisterRequest{
		Name:     body.Name,
		Email:    body.Email,
		Phone:    body.Phone,
		Password: body.Password,
		Age:      body.Age,
		Gender:   body.Gender,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return created(c, p.Profile())
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Role     string `json:"role" validate:"required,oneof=patient doctor admin"`
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	tokens, err := h.svc.Login(c.Context(), auth.LoginRequest{
		Role:     body.Role,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, fiber.Map{
		"access_token": tokens.AccessToken,
		"expires_in":   tokens.ExpiresIn,
		"user":         tokens.User,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, found := middleware.ClaimsFromFiber(c)
	if !found {
		return unauthorized(c)
	}
	if err := h.svc.Logout(c.Context(), claims.SessionID); err != nil {
		return mapAuthError(c, err)
	}
	return noContent(c)
}
