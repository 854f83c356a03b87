package completion

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportResult summarizes one completion pass over a statement
type ImportResult struct {
	StatementID uuid.UUID                       `json:"statement_id"`
	Total       int                             `json:"total"`
	Completed   int                             `json:"completed"`
	Skipped     int                             `json:"skipped"`
	Unmatched   int                             `json:"unmatched"`
	Failed      int                             `json:"failed"`
	ByStrategy  map[completion.StrategyType]int `json:"by_strategy"`
}

// StatementImportHook completes the lines of a freshly imported statement
type StatementImportHook struct {
	statements StatementStore
	engine     LineCompleter
	uow        UnitOfWork
	metrics    *telemetry.BillingMetrics
	logger     *zap.Logger
}

// NewStatementImportHook creates a new StatementImportHook. uow and metrics
// may be nil.
func NewStatementImportHook(statements StatementStore, engine LineCompleter, uow UnitOfWork, metrics *telemetry.BillingMetrics, logger *zap.Logger) *StatementImportHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	if uow == nil {
		uow = NoOpUnitOfWork{}
	}
	return &StatementImportHook{
		statements: statements,
		engine:     engine,
		uow:        uow,
		metrics:    metrics,
		logger:     logger,
	}
}

// AfterImport runs the completion rules on every line of the statement that
// has neither a partner nor an account yet. A failing line is logged and
// counted; it never aborts the batch.
func (h *StatementImportHook) AfterImport(ctx context.Context, statementID uuid.UUID) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "completion", "after_import",
		telemetry.SpanAttrStatementID, statementID.String())
	defer span.End()
	ctx = logger.WithStatementID(ctx, statementID.String())
	log := logger.WithLogger(ctx, h.logger)

	stmt, err := h.statements.FindByID(ctx, statementID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load statement: %w", err)
	}
	if stmt == nil {
		return nil, shared.ErrNotFound.WithMessage("Statement not found: " + statementID.String())
	}

	result := &ImportResult{
		StatementID: statementID,
		Total:       len(stmt.Lines),
		ByStrategy:  make(map[completion.StrategyType]int),
	}

	for i := range stmt.Lines {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line := stmt.Lines[i]
		// reruns leave lines with a partner or account untouched
		if line.IsCompleted() {
			result.Skipped++
			continue
		}

		// invoices created for the line are rolled back with a failed update
		var match completion.Match
		err := h.uow.Do(ctx, func(ctx context.Context) error {
			var err error
			if match, err = h.engine.Complete(ctx, line); err != nil {
				return err
			}
			if match.Update.IsEmpty() {
				return nil
			}
			return h.statements.UpdateLine(ctx, line.ID, match.Update)
		})
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			h.metrics.RecordLineFailed(ctx)
			log.Error("Failed to complete statement line",
				zap.String("line_id", line.ID.String()),
				zap.String("line_name", line.Name),
				zap.String("ref", line.Ref),
				zap.Error(err),
			)
		case match.Rule == nil:
			result.Unmatched++
			h.metrics.RecordLineUnmatched(ctx)
		default:
			result.Completed++
			result.ByStrategy[match.Rule.Strategy]++
			h.metrics.RecordLineCompleted(ctx, string(match.Rule.Strategy))
		}
	}

	telemetry.SetAttributes(span,
		"lines_total", result.Total,
		"lines_completed", result.Completed,
		"lines_failed", result.Failed,
	)
	log.Info("Statement completion finished",
		zap.Int("total", result.Total),
		zap.Int("completed", result.Completed),
		zap.Int("skipped", result.Skipped),
		zap.Int("unmatched", result.Unmatched),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
