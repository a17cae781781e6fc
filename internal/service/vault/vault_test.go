package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Alijeyrad/medtrack_backend/internal/service/assistant"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

type failingAnalyzer struct{}

func (failingAnalyzer) Classify(context.Context, assistant.Input) (assistant.Label, error) {
	return assistant.Label{}, errors.New("model offline")
}

func newTestVault(t *testing.T, analyzer assistant.Classifier) (Service, *LocalBlobs) {
	t.Helper()
	blobs := NewLocalBlobs(t.TempDir(), "/uploads/")
	return New(store.NewMemoryStore(), blobs, analyzer, 1), blobs
}

func upload(name, body string) UploadRequest {
	return UploadRequest{
		PatientID:   "p1",
		Filename:    name,
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	svc, blobs := newTestVault(t, assistant.NewReportAnalyzer(firstRand{}))

	f, err := svc.Upload(ctx, upload("../Blood Test.PDF", "cbc"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if f.Filename != "Blood Test.PDF" || f.Category != defaultCategory {
		t.Errorf("Upload() = %+v", f)
	}
	if !strings.HasPrefix(f.ObjectKey, "vault/p1/") || !strings.HasSuffix(f.ObjectKey, ".pdf") {
		t.Errorf("ObjectKey = %q", f.ObjectKey)
	}
	if f.InsightStatus != "Attention Needed" || !strings.Contains(f.InsightSummary, "Blood Test.PDF") {
		t.Errorf("insight = %q / %q", f.InsightStatus, f.InsightSummary)
	}

	raw, err := os.ReadFile(filepath.Join(blobs.Dir(), filepath.FromSlash(f.ObjectKey)))
	if err != nil || string(raw) != "cbc" {
		t.Errorf("stored blob = %q, %v", raw, err)
	}

	u, err := svc.DownloadURL(ctx, Viewer{UserID: "p1", Role: "patient"}, f.ID)
	if err != nil {
		t.Fatalf("DownloadURL() error = %v", err)
	}
	if u != "/uploads/"+f.ObjectKey {
		t.Errorf("DownloadURL() = %q", u)
	}
}

func TestUpload_Rejects(t *testing.T) {
	svc, _ := newTestVault(t, assistant.NewReportAnalyzer(firstRand{}))

	tests := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"empty", upload("a.pdf", ""), ErrEmptyFile},
		{"too large", UploadRequest{PatientID: "p1", Filename: "a.pdf", Size: 2 << 20, Body: strings.NewReader("x")}, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Upload(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpload_AnalyzerFailureKeepsFile(t *testing.T) {
	svc, _ := newTestVault(t, failingAnalyzer{})
	f, err := svc.Upload(context.Background(), upload("scan.png", "img"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if f.InsightStatus != "" {
		t.Errorf("InsightStatus = %q, want empty", f.InsightStatus)
	}
}

func TestAccess(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestVault(t, assistant.NewReportAnalyzer(firstRand{}))
	f, err := svc.Upload(ctx, upload("xray.png", "img"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		viewer Viewer
		want   error
	}{
		{"owner", Viewer{UserID: "p1", Role: "patient"}, nil},
		{"doctor", Viewer{UserID: "d1", Role: "doctor"}, nil},
		{"other patient", Viewer{UserID: "p2", Role: "patient"}, ErrForbidden},
		{"admin", Viewer{UserID: "a1", Role: "admin"}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := svc.List(ctx, tt.viewer, "p1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("List() error = %v, want %v", err, tt.want)
			}
			if err == nil && len(files) != 1 {
				t.Errorf("List() = %d files, want 1", len(files))
			}
			if _, err := svc.DownloadURL(ctx, tt.viewer, f.ID); !errors.Is(err, tt.want) {
				t.Errorf("DownloadURL() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := svc.DownloadURL(ctx, Viewer{Role: "doctor"}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DownloadURL(missing) error = %v, want ErrNotFound", err)
	}
}

func TestAuthorizeKey(t *testing.T) {
	tests := []struct {
		name    string
		viewer  Viewer
		key     string
		wantErr error
	}{
		{"owner", Viewer{UserID: "p1", Role: "patient"}, "/vault/p1/a.pdf", nil},
		{"other patient", Viewer{UserID: "p2", Role: "patient"}, "/vault/p1/a.pdf", ErrForbidden},
		{"doctor", Viewer{UserID: "d1", Role: "doctor"}, "vault/p1/a.pdf", nil},
		{"admin", Viewer{UserID: "admin", Role: "admin"}, "vault/p1/a.pdf", ErrForbidden},
		{"outside vault", Viewer{UserID: "p1", Role: "patient"}, "/etc/p1/passwd", ErrNotFound},
		{"too short", Viewer{UserID: "p1", Role: "patient"}, "/vault/p1", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeKey(tt.viewer, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AuthorizeKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthorizeKey_RejectsTraversal(t *testing.T) {
	v := Viewer{UserID: "p1", Role: "patient"}
	for _, key := range []string{
		"/vault/p1/../p2/a.pdf",
		"/vault/p1/%2e%2e/p2/a.pdf",
		"/vault/p1//a.pdf",
	} {
		if err := AuthorizeKey(v, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("AuthorizeKey(%q) error = %v, want ErrNotFound", key, err)
		}
	}
}
