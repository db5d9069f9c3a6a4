// Package storage keeps the label images received by the print server.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/domain/shared"
	"github.com/labelprint/labelprint/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrNotArchived is returned when an image is not in the archive
var ErrNotArchived = shared.NewDomainError("NOT_FOUND", "Label image is not archived")

// Archive stores label images by key
type Archive interface {
	Store(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// Enabled reports whether images are actually kept
	Enabled() bool
}

// Key returns the archive key of a job image: yyyy/mm/<job id>.png
func Key(jobID uuid.UUID, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%04d/%02d/%s.png", at.Year(), int(at.Month()), jobID)
}

// NewArchive creates the archive selected by the configuration
func NewArchive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case "", "none":
		logger.Info("label archive disabled")
		return NopArchive{}, nil
	case "filesystem":
		logger.Info("label archive on local filesystem", zap.String("path", cfg.Path))
		return NewFileSystemArchive(cfg.Path)
	case "s3":
		archive, err := NewS3Archive(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PathStyle: cfg.S3PathStyle,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("label archive on S3", zap.String("bucket", cfg.S3Bucket))
		return archive, nil
	}
	return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
}

// NopArchive discards images
type NopArchive struct{}

// Store implements Archive
func (NopArchive) Store(context.Context, string, []byte) error { return nil }

// Open implements Archive
func (NopArchive) Open(context.Context, string) (io.ReadCloser, error) { return nil, ErrNotArchived }

// Delete implements Archive
func (NopArchive) Delete(context.Context, string) error { return nil }

// Enabled implements Archive
func (NopArchive) Enabled() bool { return false }
