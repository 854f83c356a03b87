package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/shared"
	statementimport "github.com/erp/billing/internal/infrastructure/import"
	"github.com/erp/billing/internal/infrastructure/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrStatementRejected is returned when the file has invalid rows; nothing is imported
var ErrStatementRejected = shared.NewDomainError("STATEMENT_REJECTED", "Statement file contains invalid rows")

// ImportStatementRequest is a bank statement file to import into a journal
type ImportStatementRequest struct {
	JournalID uuid.UUID `validate:"required"`
	Filename  string    `validate:"required"`
	Name      string    `validate:"max=128"`
	Data      []byte    `validate:"required"`
}

// ImportStatementResult is the outcome of an import
type ImportStatementResult struct {
	StatementID uuid.UUID                  `json:"statement_id,omitempty"`
	Format      statementimport.Format     `json:"format"`
	TotalRows   int                        `json:"total_rows"`
	Imported    int                        `json:"imported"`
	ArchiveKey  string                     `json:"archive_key,omitempty"`
	Errors      []statementimport.RowError `json:"errors,omitempty"`
	Completion  *ImportResult              `json:"completion,omitempty"`
}

// ImportService turns statement files into statements and completes them
type ImportService struct {
	statements StatementStore
	hook       *StatementImportHook
	archive    storage.ObjectStorage
	prefix     string
	parser     *statementimport.Parser
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewImportService creates a new ImportService. archive may be nil to skip archiving.
func NewImportService(statements StatementStore, hook *StatementImportHook, archive storage.ObjectStorage, archivePrefix string, logger *zap.Logger) *ImportService {
	if archive == nil {
		archive = storage.NewNoopObjectStorage()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		statements: statements,
		hook:       hook,
		archive:    archive,
		prefix:     archivePrefix,
		parser:     statementimport.NewParser(),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// Import parses the file, stores the statement, archives the original file
// and runs the completion hook. A file with invalid rows is rejected as a
// whole and the row errors are returned along with ErrStatementRejected.
func (s *ImportService) Import(ctx context.Context, req ImportStatementRequest) (*ImportStatementResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.ErrInvalidInput.WithMessage(err.Error())
	}

	parsed, err := s.parser.Parse(req.Filename, bytes.NewReader(req.Data))
	if err != nil {
		return nil, importError(err)
	}

	result := &ImportStatementResult{
		Format:    parsed.Format,
		TotalRows: parsed.TotalRows,
	}
	if parsed.Errors.HasErrors() {
		result.Errors = parsed.Errors.Errors()
		return result, ErrStatementRejected.WithMessage(parsed.Errors.String())
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.Filename
	}
	stmt := completion.NewStatement(req.JournalID, name)
	for _, l := range parsed.Lines {
		stmt.AddLine(completion.StatementLine{
			Name:   l.Name,
			Ref:    l.Ref,
			Amount: l.Amount,
			Date:   l.Date,
		})
	}
	if err := s.statements.Create(ctx, stmt); err != nil {
		return nil, fmt.Errorf("failed to store statement: %w", err)
	}
	result.StatementID = stmt.ID
	result.Imported = len(stmt.Lines)

	key := storage.StatementArchiveKey(s.prefix, stmt.ID, req.Filename, stmt.ImportedAt)
	if err := s.archive.Upload(ctx, key, req.Data, parsed.Format.ContentType()); err != nil {
		s.logger.Warn("Failed to archive statement file",
			zap.String("statement_id", stmt.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
	} else {
		result.ArchiveKey = key
	}

	s.logger.Info("Statement imported",
		zap.String("statement_id", stmt.ID.String()),
		zap.String("journal_id", req.JournalID.String()),
		zap.String("format", string(parsed.Format)),
		zap.Int("lines", result.Imported),
	)

	completed, err := s.hook.AfterImport(ctx, stmt.ID)
	if err != nil {
		return result, fmt.Errorf("failed to complete statement: %w", err)
	}
	result.Completion = completed
	return result, nil
}

// Complete reruns the completion hook on a stored statement
func (s *ImportService) Complete(ctx context.Context, statementID uuid.UUID) (*ImportResult, error) {
	return s.hook.AfterImport(ctx, statementID)
}

func importError(err error) error {
	var missing *statementimport.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return shared.ErrInvalidInput.WithMessage(missing.Error())
	case errors.Is(err, statementimport.ErrUnsupportedFormat),
		errors.Is(err, statementimport.ErrEmptyFile),
		errors.Is(err, statementimport.ErrInvalidEncoding),
		errors.Is(err, statementimport.ErrMissingHeader),
		errors.Is(err, statementimport.ErrNoDataRows):
		return shared.ErrInvalidInput.WithMessage(err.Error())
	}
	return fmt.Errorf("failed to parse statement file: %w", err)
}
