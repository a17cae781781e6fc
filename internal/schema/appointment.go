package schema

import "strings"

type AppointmentStatus string

const (
	StatusBooked     AppointmentStatus = "BOOKED"
	StatusCheckedIn  AppointmentStatus = "CHECKED-IN"
	StatusConsulting AppointmentStatus = "CONSULTING"
	StatusCompleted  AppointmentStatus = "COMPLETED"
)

var nextStatus = map[AppointmentStatus]AppointmentStatus{
	StatusBooked:     StatusCheckedIn,
	StatusCheckedIn:  StatusConsulting,
	StatusConsulting: StatusCompleted,
}

// Next returns the following status, or false when s is terminal or unknown.
func (s AppointmentStatus) Next() (AppointmentStatus, bool) {
	n, ok := nextStatus[s]
	return n, ok
}

func (s AppointmentStatus) Terminal() bool { return s == StatusCompleted }

// Active reports whether the appointment still occupies the department.
func (s AppointmentStatus) Active() bool {
	_, ok := nextStatus[s]
	return ok
}

// Appointment is one scheduled patient and doctor encounter.
type Appointment struct {
	ID           string            `json:"id"`
	PatientID    string            `json:"patient_id"`
	PatientName  string            `json:"patient_name,omitempty"`
	DoctorID     string            `json:"doctor_id"`
	DoctorName   string            `json:"doctor_name"`
	Department   string            `json:"department"`
	Time         string            `json:"time"`
	Location     string            `json:"location"`
	Status       AppointmentStatus `json:"status"`
	Age          int               `json:"age,omitempty"`
	Gender       string            `json:"gender,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Diagnosis    string            `json:"diagnosis,omitempty"`
	Prescription string            `json:"prescription,omitempty"`
	Review       string            `json:"review,omitempty"`
	InvoiceID    string            `json:"invoice_id,omitempty"`
	Timestamps
}

func (a Appointment) RecordID() string { return a.ID }

// FormatLocation renders "<center>, <state>", or "Main Clinic" without a center.
func FormatLocation(center, state string) string {
	center = strings.TrimSpace(center)
	state = strings.TrimSpace(state)
	switch {
	case center == "":
		return "Main Clinic"
	case state == "":
		return center
	default:
		return center + ", " + state
	}
}

// NormalizeTime turns an HTML datetime-local value into "2025-01-10 09:00".
func NormalizeTime(t string) string {
	return strings.Replace(strings.TrimSpace(t), "T", " ", 1)
}
