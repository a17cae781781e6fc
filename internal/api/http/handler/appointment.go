package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/service/appointment"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrUnauthorized):
		return forbiddenMsg(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidInput):
		return badRequest(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type advanceResponse struct {
	Appointment      schema.Appointment       `json:"appointment"`
	Previous         schema.AppointmentStatus `json:"previous_status"`
	Status           schema.AppointmentStatus `json:"status"`
	InvoiceID        string                   `json:"invoice_id,omitempty"`
	AlreadyCompleted bool                     `json:"already_completed"`
}

// GET /appointments
// Patients and doctors see their own; admins filter by ?department.
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var (
		appts []schema.Appointment
		err   error
	)
	switch authorize.Role(role) {
	case authorize.RolePatient:
		appts, err = h.svc.ListForPatient(c.Context(), id)
	case authorize.RoleDoctor:
		appts, err = h.svc.ListForDoctor(c.Context(), id)
	default:
		appts, err = h.svc.ListForDepartment(c.Context(), c.Query("department"))
	}
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appts)
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	appt, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}

	switch authorize.Role(role) {
	case authorize.RolePatient:
		if appt.PatientID != id {
			return forbidden(c)
		}
	case authorize.RoleDoctor:
		if appt.DoctorID != id {
			return forbidden(c)
		}
	}
	return ok(c, appt)
}

// POST /appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		DoctorID string `json:"doctor_id" validate:"required"`
		Time     string `json:"time" validate:"required"`
		Center   string `json:"center"`
		State    string `json:"state"`
		Age      int    `json:"age" validate:"gte=0,lte=130"`
		Gender   string `json:"gender"`
		Reason   string `json:"reason" validate:"max=1000"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	appt, err := h.svc.Book(c.Context(), appointment.BookRequest{
		ActorRole: role,
		PatientID: id,
		DoctorID:  body.DoctorID,
		Time:      body.Time,
		Center:    body.Center,
		State:     body.State,
		Age:       body.Age,
		Gender:    body.Gender,
		Reason:    body.Reason,
	})
	if errors.Is(err, appointment.ErrInvoiceNotIssued) {
		// The booking itself is stored; report both facts.
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": appt, "warning": err.Error()})
	}
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, appt)
}

// PATCH /appointments/:id/advance
func (h *AppointmentHandler) Advance(c fiber.Ctx) error {
	_, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	res, err := h.svc.Advance(c.Context(), appointment.AdvanceRequest{
		AppointmentID: c.Params("id"),
		ActorRole:     role,
	})
	body := advanceResponse{
		Appointment:      res.Appointment,
		Previous:         res.Previous,
		Status:           res.Status,
		InvoiceID:        res.InvoiceID,
		AlreadyCompleted: res.AlreadyCompleted,
	}
	if errors.Is(err, appointment.ErrInvoiceNotIssued) {
		return c.JSON(fiber.Map{"data": body, "warning": err.Error()})
	}
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, body)
}

// PUT /appointments/:id/review
func (h *AppointmentHandler) Review(c fiber.Ctx) error {
	_, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Review       string  `json:"review" validate:"max=5000"`
		Diagnosis    *string `json:"diagnosis"`
		Prescription *string `json:"prescription"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, bindError(err))
	}

	appt, err := h.svc.AttachReview(c.Context(), appointment.ReviewRequest{
		AppointmentID: c.Params("id"),
		ActorRole:     role,
		Review:        body.Review,
		Diagnosis:     body.Diagnosis,
		Prescription:  body.Prescription,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// GET /appointments/load
func (h *AppointmentHandler) Load(c fiber.Ctx) error {
	load, err := h.svc.DepartmentLoad(c.Context())
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, load)
}

// GET /appointments/weekly-stats
//
// Doctors see their own chart; admins pass ?doctor_id=.
func (h *AppointmentHandler) WeeklyStats(c fiber.Ctx) error {
	id, role, found := actor(c)
	if !found {
		return unauthorized(c)
	}

	doctorID := id
	if authorize.Role(role) != authorize.RoleDoctor {
		doctorID = c.Query("doctor_id")
		if doctorID == "" {
			return badRequest(c, "doctor_id is required")
		}
	}

	stats, err := h.svc.WeeklyStats(c.Context(), doctorID)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, stats)
}
