package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/pkg/awsx"
)

// Logical table names.
const (
	TablePatients      = "patients"
	TableDoctors       = "doctors"
	TableAdmins        = "admins"
	TableSessions      = "sessions"
	TableAppointments  = "appointments"
	TableInvoices      = "invoices"
	TableVault         = "vault"
	TableBloodStock    = "blood_stock"
	TableDonations     = "donations"
	TableBloodRequests = "blood_requests"
	TableWards         = "wards"
	TableChats         = "chats"
	TableMoods         = "moods"
	TableNotifications = "notifications"
)

// Index names.
const (
	ByEmail         = "email"
	ByDepartment    = "department"
	ByUserID        = "user_id"
	ByPatientID     = "patient_id"
	ByDoctorID      = "doctor_id"
	ByAppointmentID = "appointment_id"
	ByStatus        = "status"
)

// Store groups the typed tables of the portal over one backend.
type Store struct {
	backend Backend

	Patients      *Table[schema.Patient]
	Doctors       *Table[schema.Doctor]
	Admins        *Table[schema.Admin]
	Sessions      *Table[schema.Session]
	Appointments  *Table[schema.Appointment]
	Invoices      *Table[schema.Invoice]
	Vault         *Table[schema.VaultFile]
	BloodStock    *Table[schema.BloodStock]
	Donations     *Table[schema.Donation]
	BloodRequests *Table[schema.BloodRequest]
	Wards         *Table[schema.Ward]
	Chats         *Table[schema.ChatMessage]
	Moods         *Table[schema.MoodEntry]
	Notifications *Table[schema.Notification]
}

func New(b Backend) *Store {
	return &Store{
		backend: b,

		Patients: NewTable(b, Schema[schema.Patient]{Name: TablePatients, Indexes: map[string]func(schema.Patient) string{
			ByEmail: func(p schema.Patient) string { return p.Email },
		}}),
		Doctors: NewTable(b, Schema[schema.Doctor]{Name: TableDoctors, Indexes: map[string]func(schema.Doctor) string{
			ByEmail:      func(d schema.Doctor) string { return d.Email },
			ByDepartment: func(d schema.Doctor) string { return d.Department },
		}}),
		Admins: NewTable(b, Schema[schema.Admin]{Name: TableAdmins, Indexes: map[string]func(schema.Admin) string{
			ByEmail: func(a schema.Admin) string { return a.Email },
		}}),
		Sessions: NewTable(b, Schema[schema.Session]{Name: TableSessions, Indexes: map[string]func(schema.Session) string{
			ByUserID: func(s schema.Session) string { return s.UserID },
		}}),
		Appointments: NewTable(b, Schema[schema.Appointment]{Name: TableAppointments, Indexes: map[string]func(schema.Appointment) string{
			ByPatientID:  func(a schema.Appointment) string { return a.PatientID },
			ByDoctorID:   func(a schema.Appointment) string { return a.DoctorID },
			ByDepartment: func(a schema.Appointment) string { return a.Department },
		}}),
		Invoices: NewTable(b, Schema[schema.Invoice]{Name: TableInvoices, Indexes: map[string]func(schema.Invoice) string{
			ByPatientID:     func(i schema.Invoice) string { return i.PatientID },
			ByAppointmentID: func(i schema.Invoice) string { return i.AppointmentID },
		}}),
		Vault: NewTable(b, Schema[schema.VaultFile]{Name: TableVault, Indexes: map[string]func(schema.VaultFile) string{
			ByPatientID: func(v schema.VaultFile) string { return v.PatientID },
		}}),
		BloodStock: NewTable(b, Schema[schema.BloodStock]{Name: TableBloodStock}),
		Donations: NewTable(b, Schema[schema.Donation]{Name: TableDonations, Indexes: map[string]func(schema.Donation) string{
			ByStatus: func(d schema.Donation) string { return string(d.Status) },
		}}),
		BloodRequests: NewTable(b, Schema[schema.BloodRequest]{Name: TableBloodRequests, Indexes: map[string]func(schema.BloodRequest) string{
			ByDoctorID: func(r schema.BloodRequest) string { return r.DoctorID },
		}}),
		Wards: NewTable(b, Schema[schema.Ward]{Name: TableWards}),
		Chats: NewTable(b, Schema[schema.ChatMessage]{Name: TableChats, Indexes: map[string]func(schema.ChatMessage) string{
			ByDepartment: func(c schema.ChatMessage) string { return c.Department },
		}}),
		Moods: NewTable(b, Schema[schema.MoodEntry]{Name: TableMoods, Indexes: map[string]func(schema.MoodEntry) string{
			ByPatientID: func(m schema.MoodEntry) string { return m.PatientID },
		}}),
		Notifications: NewTable(b, Schema[schema.Notification]{Name: TableNotifications, Indexes: map[string]func(schema.Notification) string{
			ByUserID: func(n schema.Notification) string { return n.UserID },
		}}),
	}
}

// NewMemoryStore is the store used by tests and the memory driver.
func NewMemoryStore() *Store {
	return New(NewMemory())
}

func (s *Store) Backend() Backend { return s.backend }

func (s *Store) Close() error { return s.backend.Close() }

// NewBackend selects the backend named by store.driver. rdb is only used by
// the redis driver and may be nil otherwise.
func NewBackend(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient) (Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory, "":
		return NewMemory(), nil
	case config.StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("store: redis driver needs a redis client")
		}
		return NewRedis(rdb, cfg.Store.KeyPrefix), nil
	case config.StoreDynamoDB:
		return NewDynamoFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}

// NewDynamoFromConfig builds the DynamoDB backend from the aws and store
// sections.
func NewDynamoFromConfig(ctx context.Context, cfg *config.Config) (*Dynamo, error) {
	awsCfg, err := awsx.LoadConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	cli := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = awsx.Endpoint(cfg.AWS.Endpoint)
	})
	return NewDynamo(cli, cfg.Store.DynamoDB.Table), nil
}
