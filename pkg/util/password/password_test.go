package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/Alijeyrad/medtrack_backend/config"
)

// cheap parameters keep the suite fast
func testHasher() *Hasher {
	return NewHasher(Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func TestHash_Format(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("correcthorsebatterystaple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("Hash() format invalid, got %s", hash)
	}
	if !strings.Contains(hash, "m=8192,t=1,p=1") {
		t.Errorf("Hash() params not encoded: %s", hash)
	}
}

func TestVerify(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("patient123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{"correct password", hash, "patient123", nil},
		{"wrong password", hash, "doctor123", ErrMismatch},
		{"empty password", hash, "", ErrMismatch},
		{"not a hash", "notahash", "patient123", ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", "x", ErrInvalidHash},
		{"malformed params", "$argon2id$v=19$invalid$c29tZXNhbHQ$c29tZWhhc2g", "x", ErrInvalidHash},
		{"other version", "$argon2id$v=16$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", "x", ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Verify(tt.hash, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHash_UniqueSalts(t *testing.T) {
	h := testHasher()
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatal("Hash() should salt every call")
	}
	if h.Verify(a, "same") != nil || h.Verify(b, "same") != nil {
		t.Error("both hashes should verify")
	}
}

func TestNeedsRehash(t *testing.T) {
	old := testHasher()
	hash, _ := old.Hash("pw")

	if old.NeedsRehash(hash) {
		t.Error("NeedsRehash() = true for matching params")
	}
	if !NewHasher(DefaultParams()).NeedsRehash(hash) {
		t.Error("NeedsRehash() = false for changed params")
	}
	if !old.NeedsRehash("garbage") {
		t.Error("NeedsRehash() = false for garbage")
	}
}

func TestFromCentralConfig(t *testing.T) {
	tests := []struct {
		name string
		in   config.PasswordConfig
		want Params
	}{
		{"zero uses defaults", config.PasswordConfig{}, DefaultParams()},
		{
			"low memory caps memory",
			config.PasswordConfig{MemoryKiB: 64 * 1024, Iterations: 3, LowMemoryMode: true},
			Params{Memory: 32 * 1024, Iterations: 4, Parallelism: 2, SaltLength: 16, KeyLength: 32},
		},
		{
			"explicit values",
			config.PasswordConfig{MemoryKiB: 1024, Iterations: 2, Parallelism: 1, SaltLength: 8, KeyLength: 16},
			Params{Memory: 1024, Iterations: 2, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromCentralConfig(tt.in); got != tt.want {
				t.Errorf("FromCentralConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
