package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/service/assistant"
)

type AssistantHandler struct {
	svc assistant.Service
}

func NewAssistantHandler(svc assistant.Service) *AssistantHandler {
	return &AssistantHandler{svc: svc}
}

func mapAssistantError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, assistant.ErrEmptyInput), errors.Is(err, assistant.ErrUnknownModality):
		return badRequest(c, err.Error())
	case errors.Is(err, assistant.ErrPatientNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /assistant/chat
func (h *AssistantHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Message string `json:"message" validate:"max=2000"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}
	l, err := h.svc.Chat(c.Context(), body.Message)
	if err != nil {
		return mapAssistantError(c, err)
	}
	return ok(c, fiber.Map{"response": l.Summary, "label": l.Name})
}

// POST /assistant/symptoms
func (h *AssistantHandler) Symptoms(c fiber.Ctx) error {
	var body struct {
		Symptoms string `json:"symptoms" validate:"max=2000"`
		Filename string `json:"filename" validate:"max=255"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}
	l, err := h.svc.CheckSymptoms(c.Context(), body.Symptoms, body.Filename)
	if err != nil {
		return mapAssistantError(c, err)
	}
	return ok(c, l)
}

// GET /patients/:id/ai-summary
func (h *AssistantHandler) PatientSummary(c fiber.Ctx) error {
	l, err := h.svc.PatientSummary(c.Context(), c.Params("id"))
	if err != nil {
		return mapAssistantError(c, err)
	}
	return ok(c, l)
}

// maxSignalBytes bounds how much of an uploaded trace is read.
const maxSignalBytes = 1 << 20

// POST /assistant/multimodal
//
// Accepts JSON or a multipart form. A multipart "file" part supplies the
// file name, and for signals the trace itself.
func (h *AssistantHandler) Multimodal(c fiber.Ctx) error {
	var body struct {
		Type     string `json:"type" form:"type" validate:"required,max=32"`
		Filename string `json:"filename" form:"filename" validate:"max=255"`
		Signal   string `json:"signal" form:"signal" validate:"max=1048576"`
		Sequence string `json:"sequence" form:"sequence" validate:"max=100000"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	if fh, err := c.FormFile("file"); err == nil {
		body.Filename = fh.Filename
		if body.Type == assistant.ModalitySignal {
			src, err := fh.Open()
			if err != nil {
				return internalError(c, err)
			}
			data, err := io.ReadAll(io.LimitReader(src, maxSignalBytes))
			src.Close()
			if err != nil {
				return internalError(c, err)
			}
			body.Signal = string(data)
		}
	}

	l, err := h.svc.Diagnose(c.Context(), assistant.DiagnoseRequest{
		Modality: body.Type,
		Filename: body.Filename,
		Signal:   body.Signal,
		Sequence: body.Sequence,
	})
	if err != nil {
		return mapAssistantError(c, err)
	}
	return ok(c, l)
}
