package schema

import (
	"testing"
	"time"
)

func TestStatusNext(t *testing.T) {
	tests := []struct {
		from   AppointmentStatus
		want   AppointmentStatus
		wantOK bool
	}{
		{StatusBooked, StatusCheckedIn, true},
		{StatusCheckedIn, StatusConsulting, true},
		{StatusConsulting, StatusCompleted, true},
		{StatusCompleted, "", false},
		{"CANCELLED", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, ok := tt.from.Next()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Next() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStockStatusFor(t *testing.T) {
	tests := []struct {
		units int
		want  StockStatus
	}{
		{0, StockCritical},
		{4, StockCritical},
		{5, StockLow},
		{9, StockLow},
		{10, StockAvailable},
		{30, StockAvailable},
	}

	for _, tt := range tests {
		if got := StockStatusFor(tt.units); got != tt.want {
			t.Errorf("StockStatusFor(%d) = %q, want %q", tt.units, got, tt.want)
		}
	}
}

func TestBloodStock_SetUnitsClamps(t *testing.T) {
	b := BloodStock{Group: "O-"}
	b.SetUnits(-3)
	if b.Units != 0 || b.Status != StockCritical {
		t.Errorf("SetUnits(-3) = %+v", b)
	}
}

func TestFormatLocation(t *testing.T) {
	tests := []struct{ center, state, want string }{
		{"", "Kerala", "Main Clinic"},
		{"Apollo Center", "Tamil Nadu", "Apollo Center, Tamil Nadu"},
		{"Apollo Center", "", "Apollo Center"},
	}
	for _, tt := range tests {
		if got := FormatLocation(tt.center, tt.state); got != tt.want {
			t.Errorf("FormatLocation(%q, %q) = %q, want %q", tt.center, tt.state, got, tt.want)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	if got := NormalizeTime("2025-01-10T09:00"); got != "2025-01-10 09:00" {
		t.Errorf("NormalizeTime() = %q", got)
	}
}

func TestTimestamps_Touch(t *testing.T) {
	var ts Timestamps
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.Touch(t1)
	t2 := t1.Add(time.Hour)
	ts.Touch(t2)
	if !ts.CreatedAt.Equal(t1) || !ts.UpdatedAt.Equal(t2) {
		t.Errorf("Touch() = %+v", ts)
	}
}

func TestSessionValid(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if !s.Valid(now) {
		t.Error("fresh session should be valid")
	}
	s.Revoked = true
	if s.Valid(now) {
		t.Error("revoked session should be invalid")
	}
}
