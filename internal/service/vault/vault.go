// Package vault stores patients' medical records and the simulated report
// insight computed on upload.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
	"github.com/Alijeyrad/medtrack_backend/internal/service/assistant"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/authorize"
)

const defaultCategory = "Report"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UploadRequest struct {
	PatientID   string
	Filename    string
	Category    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Viewer identifies who is reading the vault.
type Viewer struct {
	UserID string
	Role   string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Upload(ctx context.Context, req UploadRequest) (schema.VaultFile, error)
	List(ctx context.Context, viewer Viewer, patientID string) ([]schema.VaultFile, error)
	DownloadURL(ctx context.Context, viewer Viewer, fileID string) (string, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type vaultService struct {
	store    *store.Store
	blobs    BlobStore
	analyzer assistant.Classifier
	maxSize  int64
	now      func() time.Time
}

// New builds the vault. maxSizeMB <= 0 disables the size check.
func New(st *store.Store, blobs BlobStore, analyzer assistant.Classifier, maxSizeMB int) Service {
	return &vaultService{
		store:    st,
		blobs:    blobs,
		analyzer: analyzer,
		maxSize:  int64(maxSizeMB) << 20,
		now:      time.Now,
	}
}

func (s *vaultService) Upload(ctx context.Context, req UploadRequest) (schema.VaultFile, error) {
	if req.Size <= 0 || req.Body == nil {
		return schema.VaultFile{}, ErrEmptyFile
	}
	if s.maxSize > 0 && req.Size > s.maxSize {
		return schema.VaultFile{}, ErrFileTooLarge
	}

	name := filepath.Base(strings.TrimSpace(req.Filename))
	ext := strings.ToLower(filepath.Ext(name))
	key := fmt.Sprintf("vault/%s/%s%s", req.PatientID, uuid.New(), ext)

	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := s.blobs.Put(ctx, key, ct, req.Body, req.Size); err != nil {
		return schema.VaultFile{}, fmt.Errorf("upload vault file: %w", err)
	}

	cat := strings.TrimSpace(req.Category)
	if cat == "" {
		cat = defaultCategory
	}
	f := schema.VaultFile{
		ID:          schema.NewID(),
		PatientID:   req.PatientID,
		Filename:    name,
		Category:    cat,
		ObjectKey:   key,
		ContentType: ct,
		Size:        req.Size,
	}

	// The insight is advisory; a failing analyzer still keeps the upload.
	insight, err := s.analyzer.Classify(ctx, assistant.Input{Filename: name})
	if err != nil {
		slog.WarnContext(ctx, "vault: report analysis failed", "file", name, "error", err)
	} else {
		f.InsightStatus = insight.Status
		f.InsightSummary = insight.Summary
	}

	f.Touch(s.now().UTC())
	if err := s.store.Vault.Create(ctx, f); err != nil {
		return schema.VaultFile{}, fmt.Errorf("save vault file: %w", err)
	}
	return f, nil
}

func (s *vaultService) List(ctx context.Context, viewer Viewer, patientID string) ([]schema.VaultFile, error) {
	if err := canRead(viewer, patientID); err != nil {
		return nil, err
	}
	out, err := s.store.Vault.ListBy(ctx, store.ByPatientID, patientID)
	if err != nil {
		return nil, fmt.Errorf("list vault: %w", err)
	}
	return out, nil
}

func (s *vaultService) DownloadURL(ctx context.Context, viewer Viewer, fileID string) (string, error) {
	f, err := s.store.Vault.Get(ctx, fileID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get vault file: %w", err)
	}
	if err := canRead(viewer, f.PatientID); err != nil {
		return "", err
	}
	u, err := s.blobs.URL(ctx, f.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("vault download url: %w", err)
	}
	return u, nil
}

// canRead lets patients see their own records and doctors any patient's.
func canRead(v Viewer, patientID string) error {
	switch authorize.Role(v.Role) {
	case authorize.RoleDoctor:
		return nil
	case authorize.RolePatient:
		if v.UserID == patientID {
			return nil
		}
	}
	return ErrForbidden
}

// AuthorizeKey checks that viewer may read the blob stored under key.
// Keys are generated, so anything escaped or not in clean form is refused.
func AuthorizeKey(viewer Viewer, key string) error {
	key = strings.TrimPrefix(key, "/")
	if strings.ContainsAny(key, "%\\") || path.Clean("/"+key) != "/"+key {
		return ErrNotFound
	}
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] != "vault" || parts[1] == "" {
		return ErrNotFound
	}
	return canRead(viewer, parts[1])
}
