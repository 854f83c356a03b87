package invoicing

import (
	"context"
	"fmt"
)

// WorkflowService applies lifecycle transitions and persists the result
type WorkflowService struct {
	invoices InvoiceRepository
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(invoices InvoiceRepository) *WorkflowService {
	return &WorkflowService{invoices: invoices}
}

// Open validates a draft invoice
func (s *WorkflowService) Open(ctx context.Context, inv *Invoice) error {
	if err := inv.Open(); err != nil {
		return err
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return fmt.Errorf("failed to save opened invoice: %w", err)
	}
	return nil
}

// Cancel cancels a draft or open invoice
func (s *WorkflowService) Cancel(ctx context.Context, inv *Invoice) error {
	if err := inv.Cancel(); err != nil {
		return err
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return fmt.Errorf("failed to save cancelled invoice: %w", err)
	}
	return nil
}
