package schema

import (
	"time"

	"github.com/Alijeyrad/medtrack_backend/pkg/constants"
)

// Account is the login part shared by every role.
type Account struct {
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash string `json:"password_hash"`
}

type Patient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
	Account
	Timestamps
}

func (p Patient) RecordID() string { return p.ID }

type Doctor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	Availability string `json:"availability,omitempty"`
	Account
	Timestamps
}

func (d Doctor) RecordID() string { return d.ID }

type Admin struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Account
	Timestamps
}

func (a Admin) RecordID() string { return a.ID }

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	Timestamps
}

func (s Session) RecordID() string { return s.ID }

func (s Session) Valid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Profile is the public view of an account, without credentials.
type Profile struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Age          int    `json:"age,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Department   string `json:"department,omitempty"`
	Availability string `json:"availability,omitempty"`
}

func (p Patient) Profile() Profile {
	return Profile{ID: p.ID, Role: constants.RolePatient, Name: p.Name, Email: p.Email, Phone: p.Phone, Age: p.Age, Gender: p.Gender}
}

func (d Doctor) Profile() Profile {
	return Profile{ID: d.ID, Role: constants.RoleDoctor, Name: d.Name, Email: d.Email, Phone: d.Phone, Department: d.Department, Availability: d.Availability}
}

func (a Admin) Profile() Profile {
	return Profile{ID: a.ID, Role: constants.RoleAdmin, Name: a.Name, Email: a.Email, Phone: a.Phone}
}
