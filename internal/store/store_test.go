package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
)

// backends returns every backend the suite runs against. Redis runs on an
// in-process miniredis unless MEDTRACK_TEST_REDIS_ADDR points at a
// disposable server.
func backends(t *testing.T) map[string]func(t *testing.T) Backend {
	t.Helper()
	return map[string]func(t *testing.T) Backend{
		"memory": func(*testing.T) Backend { return NewMemory() },
		"dynamodb": func(*testing.T) Backend {
			return NewDynamo(newFakeDynamo(), "medtrack_test")
		},
		"redis": func(t *testing.T) Backend {
			return NewRedis(newTestRedis(t), "medtrack_test_"+schema.NewID())
		},
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("MEDTRACK_TEST_REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func appt(id, patient, doctor string) schema.Appointment {
	return schema.Appointment{
		ID:         id,
		PatientID:  patient,
		DoctorID:   doctor,
		Department: "Cardiology",
		Status:     schema.StatusBooked,
	}
}

func ids(recs []schema.Appointment) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestTable_GetPut(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(mk(t))

			if _, err := s.Appointments.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
			}

			a := appt("a1", "p1", "d1")
			a.Reason = "chest pain"
			if err := s.Appointments.Put(ctx, a); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := s.Appointments.Get(ctx, "a1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Reason != "chest pain" || got.Status != schema.StatusBooked {
				t.Errorf("Get() = %+v", got)
			}
		})
	}
}

func TestTable_Create(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(mk(t))

			if err := s.Appointments.Create(ctx, appt("a1", "p1", "d1")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			err := s.Appointments.Create(ctx, appt("a1", "p2", "d2"))
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("second Create() error = %v, want ErrConflict", err)
			}
			got, _ := s.Appointments.Get(ctx, "a1")
			if got.PatientID != "p1" {
				t.Errorf("record overwritten: %+v", got)
			}
		})
	}
}

func TestTable_EmptyID(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Appointments.Put(context.Background(), schema.Appointment{}); err == nil {
		t.Fatal("Put() with empty id should fail")
	}
}

func TestTable_IndexesFollowUpdates(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(mk(t))

			for _, a := range []schema.Appointment{
				appt("a1", "p1", "d1"),
				appt("a2", "p1", "d2"),
				appt("a3", "p2", "d1"),
			} {
				if err := s.Appointments.Put(ctx, a); err != nil {
					t.Fatalf("Put(%s) error = %v", a.ID, err)
				}
			}

			got, err := s.Appointments.ListBy(ctx, ByPatientID, "p1")
			if err != nil {
				t.Fatalf("ListBy() error = %v", err)
			}
			if fmt.Sprint(ids(got)) != "[a1 a2]" {
				t.Errorf("ListBy(p1) = %v", ids(got))
			}

			// Move a2 to another doctor; both index entries must follow.
			if _, err := s.Appointments.Update(ctx, "a2", func(a *schema.Appointment) error {
				a.DoctorID = "d1"
				return nil
			}); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			byD1, _ := s.Appointments.ListBy(ctx, ByDoctorID, "d1")
			if fmt.Sprint(ids(byD1)) != "[a1 a2 a3]" {
				t.Errorf("ListBy(d1) = %v", ids(byD1))
			}
			byD2, _ := s.Appointments.ListBy(ctx, ByDoctorID, "d2")
			if len(byD2) != 0 {
				t.Errorf("ListBy(d2) = %v, want empty", ids(byD2))
			}

			if err := s.Appointments.Delete(ctx, "a1"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			byP1, _ := s.Appointments.ListBy(ctx, ByPatientID, "p1")
			if fmt.Sprint(ids(byP1)) != "[a2]" {
				t.Errorf("ListBy(p1) after delete = %v", ids(byP1))
			}
			all, _ := s.Appointments.Scan(ctx)
			if fmt.Sprint(ids(all)) != "[a2 a3]" {
				t.Errorf("Scan() after delete = %v", ids(all))
			}
			if err := s.Appointments.Delete(ctx, "a1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestTable_ListByUnknownIndex(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Appointments.ListBy(context.Background(), "reason", "x"); err == nil {
		t.Fatal("ListBy() on an unknown index should fail")
	}
}

func TestTable_Update(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(mk(t))

			if _, err := s.Appointments.Update(ctx, "missing", func(*schema.Appointment) error { return nil }); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Update(missing) error = %v, want ErrNotFound", err)
			}

			_ = s.Appointments.Put(ctx, appt("a1", "p1", "d1"))

			got, err := s.Appointments.Update(ctx, "a1", func(a *schema.Appointment) error {
				a.Review = "stable"
				return nil
			})
			if err != nil || got.Review != "stable" {
				t.Fatalf("Update() = %+v, %v", got, err)
			}

			boom := errors.New("boom")
			if _, err := s.Appointments.Update(ctx, "a1", func(a *schema.Appointment) error {
				a.Review = "lost"
				return boom
			}); !errors.Is(err, boom) {
				t.Fatalf("Update() error = %v, want boom", err)
			}

			got, err = s.Appointments.Update(ctx, "a1", func(a *schema.Appointment) error {
				a.Review = "also lost"
				return ErrNoChange
			})
			if err != nil {
				t.Fatalf("Update(ErrNoChange) error = %v", err)
			}
			if got.Review != "stable" {
				t.Errorf("Update(ErrNoChange) returned %q, want stored record", got.Review)
			}

			stored, _ := s.Appointments.Get(ctx, "a1")
			if stored.Review != "stable" {
				t.Errorf("stored review = %q, want stable", stored.Review)
			}

			if _, err := s.Appointments.Update(ctx, "a1", func(a *schema.Appointment) error {
				a.ID = "a2"
				return nil
			}); err == nil {
				t.Error("Update() that changes the id should fail")
			}
		})
	}
}

func TestTable_ConcurrentUpdatesAllLand(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(mk(t))
			_ = s.BloodStock.Put(ctx, schema.BloodStock{Group: "O+"})

			// A writer under optimistic retries loses at most n-1 rounds.
			n := 50
			if name != "memory" {
				n = maxRetries / 2
			}
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.BloodStock.Update(ctx, "O+", func(b *schema.BloodStock) error {
						b.SetUnits(b.Units + 1)
						return nil
					})
					if err != nil {
						t.Errorf("Update() error = %v", err)
					}
				}()
			}
			wg.Wait()

			got, _ := s.BloodStock.Get(ctx, "O+")
			if got.Units != n {
				t.Errorf("units = %d, want %d", got.Units, n)
			}
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Mutate(ctx, "t", "1", func([]byte, bool) ([]byte, map[string]string, error) {
		return []byte(`{"id":"1"}`), nil, nil
	})

	b, _ := m.Get(ctx, "t", "1")
	b[0] = 'X'

	again, _ := m.Get(ctx, "t", "1")
	if string(again) != `{"id":"1"}` {
		t.Errorf("stored bytes mutated through Get: %s", again)
	}
}

func TestIndexFromFields(t *testing.T) {
	got := indexFromFields(map[string]string{
		"data":           "{}",
		"idx:patient_id": "p1",
		"idx:doctor_id":  "d1",
	})
	if len(got) != 2 || got["patient_id"] != "p1" || got["doctor_id"] != "d1" {
		t.Errorf("indexFromFields() = %v", got)
	}
}

func TestRedisKeys(t *testing.T) {
	r := NewRedis(nil, "")
	tests := []struct{ got, want string }{
		{r.recKey("appointments", "a1"), "medtrack:appointments:rec:a1"},
		{r.idsKey("appointments"), "medtrack:appointments:ids"},
		{r.idxKey("appointments", "patient_id", "p1"), "medtrack:appointments:idx:patient_id:p1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestRedis_IndexSetsFollowWrites(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	r := NewRedis(rdb, "mt")
	s := New(r)

	_ = s.Appointments.Put(ctx, appt("a1", "p1", "d1"))
	_ = s.Appointments.Put(ctx, appt("a2", "p1", "d2"))

	members := func(key string) []string {
		t.Helper()
		if !mr.Exists(key) {
			return nil
		}
		got, err := mr.Members(key)
		if err != nil {
			t.Fatalf("Members(%s) error = %v", key, err)
		}
		return got
	}

	if _, err := s.Appointments.Update(ctx, "a2", func(a *schema.Appointment) error {
		a.DoctorID = "d1"
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := members(r.idxKey("appointments", ByDoctorID, "d2")); len(got) != 0 {
		t.Errorf("old index set still holds %v", got)
	}
	if got := fmt.Sprint(members(r.idxKey("appointments", ByDoctorID, "d1"))); got != "[a1 a2]" {
		t.Errorf("new index set = %s", got)
	}

	before := mr.HGet(r.recKey("appointments", "a1"), dataField)
	if _, err := s.Appointments.Update(ctx, "a1", func(a *schema.Appointment) error {
		a.DoctorID = "d9"
		return ErrNoChange
	}); err != nil {
		t.Fatalf("Update(ErrNoChange) error = %v", err)
	}
	if after := mr.HGet(r.recKey("appointments", "a1"), dataField); after != before {
		t.Errorf("ErrNoChange rewrote the record:\n%s\n%s", before, after)
	}
	if mr.Exists(r.idxKey("appointments", ByDoctorID, "d9")) {
		t.Error("ErrNoChange wrote an index entry")
	}

	if err := s.Appointments.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for _, key := range []string{
		r.idxKey("appointments", ByDoctorID, "d1"),
		r.idxKey("appointments", ByPatientID, "p1"),
		r.idsKey("appointments"),
	} {
		for _, id := range members(key) {
			if id == "a1" {
				t.Errorf("%s still holds a1 after delete", key)
			}
		}
	}
	if mr.Exists(r.recKey("appointments", "a1")) {
		t.Error("record hash survived delete")
	}
}
