package vault

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Alijeyrad/medtrack_backend/config"
	s3pkg "github.com/Alijeyrad/medtrack_backend/pkg/s3"
)

// BlobStore holds the raw bytes of vault files.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, key string) (string, error)
}

// S3Blobs keeps blobs private in a bucket and hands out presigned URLs.
type S3Blobs struct {
	c *s3pkg.Client
}

func NewS3Blobs(c *s3pkg.Client) *S3Blobs { return &S3Blobs{c: c} }

func (b *S3Blobs) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	return b.c.Upload(ctx, key, contentType, body, size)
}

func (b *S3Blobs) URL(ctx context.Context, key string) (string, error) {
	return b.c.PresignDownload(ctx, key)
}

// LocalBlobs writes under a directory that the HTTP server exposes as
// static files at publicBase.
type LocalBlobs struct {
	dir        string
	publicBase string
}

func NewLocalBlobs(dir, publicBase string) *LocalBlobs {
	if publicBase == "" {
		publicBase = "/uploads"
	}
	return &LocalBlobs{dir: dir, publicBase: strings.TrimRight(publicBase, "/")}
}

func (b *LocalBlobs) Dir() string { return b.dir }

func (b *LocalBlobs) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	dst := filepath.Join(b.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("local blob %q: %w", key, err)
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("local blob %q: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("local blob %q: %w", key, err)
	}
	return f.Close()
}

func (b *LocalBlobs) URL(_ context.Context, key string) (string, error) {
	return b.publicBase + "/" + (&url.URL{Path: path.Clean(key)}).EscapedPath(), nil
}

// NewBlobStore picks the blob store named by vault.driver.
func NewBlobStore(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.Vault.Driver {
	case "s3":
		c, err := s3pkg.New(ctx, cfg.AWS, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3Blobs(c), nil
	case "local", "":
		return NewLocalBlobs(cfg.Vault.LocalDir, cfg.Vault.PublicBase), nil
	default:
		return nil, fmt.Errorf("vault: unknown driver %q", cfg.Vault.Driver)
	}
}
