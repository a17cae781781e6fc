// Package appointment owns the appointment lifecycle:
//
//	BOOKED -> CHECKED-IN -> CONSULTING -> COMPLETED
//
// Transitions are computed inside an atomic store update, so only the writer
// that wins a transition fires its side effects.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/service/invoice"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/constants"
	"github.com/Alijeyrad/medtrack_backend/pkg/observability"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type BookRequest struct {
	ActorRole string
	PatientID string
	DoctorID  string
	Time      string
	Center    string
	State     string
	Age       int
	Gender    string
	Reason    string
}

type AdvanceRequest struct {
	AppointmentID string
	ActorRole     string
}

// AdvanceResult reports one advance call. AlreadyCompleted is set, and
// nothing is written, when the appointment was already terminal.
type AdvanceResult struct {
	Appointment      schema.Appointment
	Previous         schema.AppointmentStatus
	Status           schema.AppointmentStatus
	InvoiceID        string
	AlreadyCompleted bool
}

type ReviewRequest struct {
	AppointmentID string
	ActorRole     string
	Review        string
	Diagnosis     *string
	Prescription  *string
}

type Options struct {
	InvoiceOn string
	OpsTopic  string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		InvoiceOn: cfg.Billing.InvoiceOn,
		OpsTopic:  cfg.Notifications.OpsTopicARN,
	}
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Book(ctx context.Context, req BookRequest) (schema.Appointment, error)
	Advance(ctx context.Context, req AdvanceRequest) (AdvanceResult, error)
	AttachReview(ctx context.Context, req ReviewRequest) (schema.Appointment, error)
	Get(ctx context.Context, id string) (schema.Appointment, error)
	ListForPatient(ctx context.Context, patientID string) ([]schema.Appointment, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]schema.Appointment, error)
	ListForDepartment(ctx context.Context, department string) ([]schema.Appointment, error)
	DepartmentLoad(ctx context.Context) (map[string]int, error)
	WeeklyStats(ctx context.Context, doctorID string) ([]DayCount, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store    *store.Store
	invoices invoice.Service
	notify   notifier.Notifier
	metrics  *observability.Metrics
	opts     Options
	now      func() time.Time
}

func New(
	st *store.Store,
	invoices invoice.Service,
	n notifier.Notifier,
	m *observability.Metrics,
	opts Options,
) Service {
	if opts.InvoiceOn == "" {
		opts.InvoiceOn = config.InvoiceOnCompletion
	}
	return &appointmentService{
		store:    st,
		invoices: invoices,
		notify:   n,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *appointmentService) Book(ctx context.Context, req BookRequest) (schema.Appointment, error) {
	if req.ActorRole != constants.RolePatient {
		return schema.Appointment{}, ErrUnauthorized
	}
	if req.PatientID == "" || req.DoctorID == "" || strings.TrimSpace(req.Time) == "" {
		return schema.Appointment{}, fmt.Errorf("%w: patient, doctor and time are required", ErrInvalidInput)
	}

	doc, err := s.store.Doctors.Get(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return schema.Appointment{}, ErrDoctorNotFound
		}
		return schema.Appointment{}, fmt.Errorf("book appointment: %w", err)
	}
	patient := s.recipient(ctx, req.PatientID)

	appt := schema.Appointment{
		ID:          schema.NewID(),
		PatientID:   req.PatientID,
		PatientName: patient.Name,
		DoctorID:    doc.ID,
		DoctorName:  doc.Name,
		Department:  doc.Department,
		Time:        schema.NormalizeTime(req.Time),
		Location:    schema.FormatLocation(req.Center, req.State),
		Status:      schema.StatusBooked,
		Age:         req.Age,
		Gender:      req.Gender,
		Reason:      req.Reason,
	}
	billAtBooking := s.opts.InvoiceOn == config.InvoiceOnBooking
	if billAtBooking {
		appt.InvoiceID = invoice.IDFor(appt.ID)
	}
	appt.Touch(s.now().UTC())

	if err := s.store.Appointments.Create(ctx, appt); err != nil {
		return schema.Appointment{}, fmt.Errorf("book appointment: %w", err)
	}

	if billAtBooking {
		center := strings.TrimSpace(req.Center)
		if center == "" {
			center = "General"
		}
		if _, err := s.invoices.Issue(ctx, invoice.IssueRequest{
			Appointment: appt,
			Trigger:     invoice.TriggerBooking,
			Description: "Consultation Fee - " + center,
		}); err != nil && !errors.Is(err, invoice.ErrAlreadyIssued) {
			return appt, fmt.Errorf("book appointment: %w: %w", ErrInvoiceNotIssued, err)
		}
	}

	s.notify.Notify(ctx, notifier.Message{
		Kind:    notifier.KindAppointmentBooked,
		Subject: "MedTrack - Appointment Confirmed",
		Body: fmt.Sprintf("Your appointment has been successfully booked!\n\nDoctor: %s\nDate & Time: %s\nLocation: %s\n\nPlease arrive 10 minutes early for check-in.",
			appt.DoctorName, appt.Time, appt.Location),
		Recipient: patient,
		Data:      map[string]string{"appointment_id": appt.ID},
	})
	if s.opts.OpsTopic != "" {
		s.notify.Notify(ctx, notifier.Message{
			Kind:      notifier.KindOps,
			Subject:   "MedTrack Appointment Alert",
			Body:      fmt.Sprintf("New Appointment Booked!\nPatient: %s\nDoctor: %s\nTime: %s", patient.Name, appt.DoctorName, appt.Time),
			Recipient: notifier.Recipient{Topic: s.opts.OpsTopic},
			Data:      map[string]string{"appointment_id": appt.ID},
		})
	}

	return appt, nil
}

func (s *appointmentService) Advance(ctx context.Context, req AdvanceRequest) (AdvanceResult, error) {
	if req.ActorRole != constants.RoleDoctor {
		return AdvanceResult{}, ErrUnauthorized
	}

	var res AdvanceResult
	now := s.now().UTC()

	appt, err := s.store.Appointments.Update(ctx, req.AppointmentID, func(a *schema.Appointment) error {
		res = AdvanceResult{Previous: a.Status}
		next, ok := a.Status.Next()
		if !ok {
			if a.Status.Terminal() {
				res.AlreadyCompleted = true
				return store.ErrNoChange
			}
			return fmt.Errorf("%w: %q", ErrInvalidStatus, a.Status)
		}
		a.Status = next
		if next.Terminal() && a.InvoiceID == "" {
			a.InvoiceID = invoice.IDFor(a.ID)
			res.InvoiceID = a.InvoiceID
		}
		a.Touch(now)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AdvanceResult{}, ErrNotFound
		}
		if errors.Is(err, ErrInvalidStatus) {
			return AdvanceResult{}, err
		}
		return AdvanceResult{}, fmt.Errorf("advance appointment: %w", err)
	}

	res.Appointment = appt
	res.Status = appt.Status
	if res.AlreadyCompleted {
		// A completion whose invoice write failed is repaired here; the
		// invoice id is derived from the appointment, so this is idempotent.
		if appt.InvoiceID == "" {
			return res, nil
		}
		inv, err := s.issueCompletionInvoice(ctx, appt)
		switch {
		case errors.Is(err, invoice.ErrAlreadyIssued):
			return res, nil
		case err != nil:
			return res, fmt.Errorf("advance appointment: %w: %w", ErrInvoiceNotIssued, err)
		}
		slog.InfoContext(ctx, "missing completion invoice issued", "appointment_id", appt.ID, "invoice_id", inv.ID)
		res.InvoiceID = inv.ID
		s.notifyStatus(ctx, appt, inv)
		return res, nil
	}
	s.metrics.Transition(ctx, string(res.Previous), string(res.Status))

	var inv schema.Invoice
	if res.InvoiceID != "" {
		inv, err = s.issueCompletionInvoice(ctx, appt)
		if err != nil && !errors.Is(err, invoice.ErrAlreadyIssued) {
			return res, fmt.Errorf("advance appointment: %w: %w", ErrInvoiceNotIssued, err)
		}
	}

	s.notifyStatus(ctx, appt, inv)
	return res, nil
}

func (s *appointmentService) issueCompletionInvoice(ctx context.Context, appt schema.Appointment) (schema.Invoice, error) {
	inv, err := s.invoices.Issue(ctx, invoice.IssueRequest{
		Appointment: appt,
		Trigger:     invoice.TriggerCompletion,
		Description: "Consultation with " + appt.DoctorName,
	})
	if err != nil && !errors.Is(err, invoice.ErrAlreadyIssued) {
		slog.ErrorContext(ctx, "completion invoice not issued", "appointment_id", appt.ID, "error", err)
	}
	return inv, err
}

func (s *appointmentService) notifyStatus(ctx context.Context, appt schema.Appointment, inv schema.Invoice) {
	body := fmt.Sprintf("Your appointment with %s on %s is now %s.\n\nPlease check your dashboard for details.",
		appt.DoctorName, appt.Time, appt.Status)
	data := map[string]string{"appointment_id": appt.ID, "status": string(appt.Status)}
	if inv.ID != "" {
		body += fmt.Sprintf("\nInvoice %s for %d %s has been generated.", inv.ID, inv.Amount, inv.Currency)
		data["invoice_id"] = inv.ID
	}

	s.notify.Notify(ctx, notifier.Message{
		Kind:      notifier.KindAppointmentStatus,
		Subject:   fmt.Sprintf("MedTrack - Appointment %s", appt.Status),
		Body:      body,
		Recipient: s.recipient(ctx, appt.PatientID),
		Data:      data,
	})
}

func (s *appointmentService) AttachReview(ctx context.Context, req ReviewRequest) (schema.Appointment, error) {
	if req.ActorRole != constants.RoleDoctor {
		return schema.Appointment{}, ErrUnauthorized
	}
	now := s.now().UTC()

	appt, err := s.store.Appointments.Update(ctx, req.AppointmentID, func(a *schema.Appointment) error {
		changed := a.Review != req.Review
		a.Review = req.Review
		if req.Diagnosis != nil && *req.Diagnosis != a.Diagnosis {
			a.Diagnosis = *req.Diagnosis
			changed = true
		}
		if req.Prescription != nil && *req.Prescription != a.Prescription {
			a.Prescription = *req.Prescription
			changed = true
		}
		if !changed {
			return store.ErrNoChange
		}
		a.Touch(now)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return schema.Appointment{}, ErrNotFound
		}
		return schema.Appointment{}, fmt.Errorf("attach review: %w", err)
	}
	return appt, nil
}

func (s *appointmentService) Get(ctx context.Context, id string) (schema.Appointment, error) {
	appt, err := s.store.Appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return schema.Appointment{}, ErrNotFound
		}
		return schema.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *appointmentService) ListForPatient(ctx context.Context, patientID string) ([]schema.Appointment, error) {
	return s.listBy(ctx, store.ByPatientID, patientID)
}

func (s *appointmentService) ListForDoctor(ctx context.Context, doctorID string) ([]schema.Appointment, error) {
	return s.listBy(ctx, store.ByDoctorID, doctorID)
}

// ListForDepartment lists one department, or every appointment when
// department is empty.
func (s *appointmentService) ListForDepartment(ctx context.Context, department string) ([]schema.Appointment, error) {
	if department == "" {
		out, err := s.store.Appointments.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("list appointments: %w", err)
		}
		return out, nil
	}
	return s.listBy(ctx, store.ByDepartment, department)
}

func (s *appointmentService) listBy(ctx context.Context, index, value string) ([]schema.Appointment, error) {
	out, err := s.store.Appointments.ListBy(ctx, index, value)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// DepartmentLoad counts appointments that are booked, checked in or in
// consultation, per department.
func (s *appointmentService) DepartmentLoad(ctx context.Context) (map[string]int, error) {
	all, err := s.store.Appointments.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("department load: %w", err)
	}
	load := make(map[string]int)
	for _, a := range all {
		if a.Status.Active() {
			load[a.Department]++
		}
	}
	return load, nil
}

// DayCount is one day of a doctor's weekly patient chart.
type DayCount struct {
	Day   string `json:"day"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

const (
	statsDays   = 7
	dateLayout  = "2006-01-02"
	visitLayout = "2006-01-02 15:04"
)

// WeeklyStats counts a doctor's appointments per day over the last seven
// days, oldest first. An appointment counts on its scheduled day, or on the
// day it was booked when the time is not a parseable date.
func (s *appointmentService) WeeklyStats(ctx context.Context, doctorID string) ([]DayCount, error) {
	appts, err := s.listBy(ctx, store.ByDoctorID, doctorID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]DayCount, statsDays)
	slot := make(map[string]int, statsDays)
	for i := range out {
		d := today.AddDate(0, 0, i-statsDays+1)
		out[i] = DayCount{Day: d.Format("Mon"), Date: d.Format(dateLayout)}
		slot[out[i].Date] = i
	}

	for _, a := range appts {
		day := a.CreatedAt.UTC().Format(dateLayout)
		if t, err := time.Parse(visitLayout, a.Time); err == nil {
			day = t.Format(dateLayout)
		} else if t, err := time.Parse(dateLayout, a.Time); err == nil {
			day = t.Format(dateLayout)
		}
		if i, ok := slot[day]; ok {
			out[i].Count++
		}
	}
	return out, nil
}

// recipient resolves the patient's contact details. A missing profile still
// yields an in-app recipient.
func (s *appointmentService) recipient(ctx context.Context, patientID string) notifier.Recipient {
	r := notifier.Recipient{UserID: patientID}
	p, err := s.store.Patients.Get(ctx, patientID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "patient lookup for notification failed", "patient_id", patientID, "error", err)
		}
		return r
	}
	r.Name = p.Name
	r.Email = p.Email
	r.Phone = p.Phone
	return r
}
