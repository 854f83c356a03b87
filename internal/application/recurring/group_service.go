package recurring

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdateGroupResult reports what an update triggered
type UpdateGroupResult struct {
	Group        *contract.Group
	ChangeMethod contract.ChangeMethod // empty when no change method ran
	JobID        *uuid.UUID            // set when the clean was queued
	Cancelled    []invoicing.Invoice   // set when the clean ran inline
}

// GroupService updates contract groups and applies their change method
type GroupService struct {
	tx         TransactionScope
	groups     GroupReader
	generation *GenerationService
	states     []contract.State
	logger     *zap.Logger
}

// NewGroupService creates a new GroupService
func NewGroupService(tx TransactionScope, groups GroupReader, generation *GenerationService, states []contract.State, logger *zap.Logger) *GroupService {
	if len(states) == 0 {
		states = contract.DefaultGenerationStates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{
		tx:         tx,
		groups:     groups,
		generation: generation,
		states:     states,
		logger:     logger,
	}
}

// Get loads a group with its contracts
func (s *GroupService) Get(ctx context.Context, groupID uuid.UUID) (*contract.Group, error) {
	group, err := s.groups.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, shared.ErrNotFound.WithMessage("Contract group not found: " + groupID.String())
	}
	return group, nil
}

// Update writes the changes. When the group was already scheduled and the
// changes do not move the cursors themselves, the change method (from the
// changes when given, else the group's) runs afterwards: clean_invoices
// cancels and regenerates the group's future invoices, in the background
// when async is set.
func (s *GroupService) Update(ctx context.Context, groupID uuid.UUID, changes contract.GroupChanges, async bool) (*UpdateGroupResult, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	var (
		group   *contract.Group
		handled bool
	)
	err := s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		contracts := repos.ContractRepo()
		var err error
		group, err = contracts.FindGroupByID(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}
		if group == nil {
			return shared.ErrNotFound.WithMessage("Contract group not found: " + groupID.String())
		}

		handled = group.NextInvoiceDate(s.states) == nil || changes.TouchesNextInvoiceDate()

		moved, err := group.Apply(changes, s.states)
		if err != nil {
			return err
		}
		if err := contracts.SaveGroup(ctx, group); err != nil {
			return fmt.Errorf("failed to save group: %w", err)
		}
		for _, c := range moved {
			if err := contracts.SaveContract(ctx, c); err != nil {
				return fmt.Errorf("failed to save contract %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &UpdateGroupResult{Group: group}
	if handled {
		return result, nil
	}

	result.ChangeMethod = group.ChangeMethod
	switch group.ChangeMethod {
	case contract.ChangeCleanInvoices:
		jobID, cancelled, err := s.generation.RequestClean(ctx, []uuid.UUID{groupID}, async)
		if err != nil {
			return result, err
		}
		result.JobID = jobID
		result.Cancelled = cancelled
	case contract.ChangeDoNothing:
	}

	s.logger.Info("Contract group updated",
		zap.String("group_id", groupID.String()),
		zap.String("change_method", string(result.ChangeMethod)),
		zap.Int("cancelled", len(result.Cancelled)),
	)
	return result, nil
}
