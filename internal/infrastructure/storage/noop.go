package storage

import (
	"context"
	"errors"
	"time"
)

// NoopObjectStorage discards uploads. It is used when no object storage is
// configured, so imports and exports still work without archiving.
type NoopObjectStorage struct{}

// NewNoopObjectStorage creates a new NoopObjectStorage
func NewNoopObjectStorage() *NoopObjectStorage {
	return &NoopObjectStorage{}
}

var _ ObjectStorage = (*NoopObjectStorage)(nil)

// ErrArchivingDisabled is returned for download links when nothing is stored
var ErrArchivingDisabled = errors.New("object storage is not configured")

// Upload discards the data
func (s *NoopObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	return nil
}

// GenerateDownloadURL always fails: nothing was stored
func (s *NoopObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "", time.Time{}, ErrArchivingDisabled
}
