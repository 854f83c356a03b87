// Package storage archives imported statement files and invoicer reports in
// object storage.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage stores archive objects
type ObjectStorage interface {
	// Upload writes data under the key
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// GenerateDownloadURL returns a time-limited download link for the key
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// New builds the storage selected by cfg.Provider: "s3" or "none"
func New(cfg *config.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3ObjectStorage(cfg, WithLogger(logger))
	case "", "none":
		return NewNoopObjectStorage(), nil
	}
	return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
}

// StatementArchiveKey is the key of an imported statement file:
// <prefix>/statements/<yyyy>/<mm>/<statement id>/<file name>
func StatementArchiveKey(prefix string, statementID uuid.UUID, filename string, importedAt time.Time) string {
	return join(prefix, "statements", importedAt.Format("2006"), importedAt.Format("01"),
		statementID.String(), sanitizeFilename(filename))
}

// InvoicerReportKey is the key of an invoicer XLSX report
func InvoicerReportKey(prefix string, invoicerID uuid.UUID) string {
	return join(prefix, "invoicers", invoicerID.String()+".xlsx")
}

func join(prefix string, parts ...string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(parts...)
	}
	return path.Join(append([]string{prefix}, parts...)...)
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "statement"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, name)
}
