package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/vault"
)

type VaultHandler struct {
	svc vault.Service
}

func NewVaultHandler(svc vault.Service) *VaultHandler {
	return &VaultHandler{svc: svc}
}

func mapVaultError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, vault.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, vault.ErrEmptyFile):
		return badRequest(c, err.Error())
	case errors.Is(err, vault.ErrFileTooLarge):
		return tooLarge(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /vault (multipart: file, category)
func (h *VaultHandler) Upload(c fiber.Ctx) error {
	id, _, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return internalError(c, err)
	}
	defer src.Close()

	f, err := h.svc.Upload(c.Context(), vault.UploadRequest{
		PatientID:   id,
		Filename:    fh.Filename,
		Category:    c.FormValue("category"),
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        src,
	})
	if err != nil {
		return mapVaultError(c, err)
	}
	return created(c, f)
}

// GET /vault
func (h *VaultHandler) ListOwn(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	files, err := h.svc.List(c.Context(), vault.Viewer{UserID: id, Role: role}, id)
	if err != nil {
		return mapVaultError(c, err)
	}
	return ok(c, files)
}

// GET /patients/:id/vault
func (h *VaultHandler) ListForPatient(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	files, err := h.svc.List(c.Context(), vault.Viewer{UserID: id, Role: role}, c.Params("id"))
	if err != nil {
		return mapVaultError(c, err)
	}
	return ok(c, files)
}

// GET /vault/:id/download
func (h *VaultHandler) Download(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}
	u, err := h.svc.DownloadURL(c.Context(), vault.Viewer{UserID: id, Role: role}, c.Params("id"))
	if err != nil {
		return mapVaultError(c, err)
	}
	return ok(c, fiber.Map{"url": u})
}

// LocalFile guards blobs served from the local vault directory under base.
func (h *VaultHandler) LocalFile(base string) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, role, found := actor(c)
		if !found {
			return unauthorized(c)
		}
		key := strings.TrimPrefix(c.Path(), strings.TrimRight(base, "/"))
		if err := vault.AuthorizeKey(vault.Viewer{UserID: id, Role: role}, key); err != nil {
			return mapVaultError(c, err)
		}
		return c.Next()
	}
}
