package completion

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnerFinder is the subset of partner persistence the resolver reads
type PartnerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error)
	FindByRef(ctx context.Context, ref string, isCompany bool) ([]partner.Partner, error)
	FindByName(ctx context.Context, lastName, firstNamePart string) ([]partner.Partner, error)
}

// GroupFinder finds contract groups by payment slip reference
type GroupFinder interface {
	FindGroupsByBVRReference(ctx context.Context, ref string) ([]contract.Group, error)
}

// InvoiceFinder queries invoices
type InvoiceFinder interface {
	Query(ctx context.Context, c invoicing.Criteria) ([]invoicing.Invoice, error)
}

// MoveLineFinder finds posted journal items by reference
type MoveLineFinder interface {
	FindByRefWithPartner(ctx context.Context, ref string) ([]MoveLine, error)
}

// PartnerResolver answers the partner lookups strategies need
type PartnerResolver struct {
	partners  PartnerFinder
	groups    GroupFinder
	invoices  InvoiceFinder
	moveLines MoveLineFinder
}

// NewPartnerResolver creates a new PartnerResolver
func NewPartnerResolver(partners PartnerFinder, groups GroupFinder, invoices InvoiceFinder, moveLines MoveLineFinder) *PartnerResolver {
	return &PartnerResolver{
		partners:  partners,
		groups:    groups,
		invoices:  invoices,
		moveLines: moveLines,
	}
}

// ByPartnerRef lists the individuals (non-company partners) with the code
func (r *PartnerResolver) ByPartnerRef(ctx context.Context, code string) ([]partner.Partner, error) {
	return r.partners.FindByRef(ctx, code, false)
}

// ByName lists partners by exact last name and partial first name
func (r *PartnerResolver) ByName(ctx context.Context, lastName, firstNamePart string) ([]partner.Partner, error) {
	return r.partners.FindByName(ctx, lastName, firstNamePart)
}

// ByBVRReference finds the partner paying with a payment slip reference. Contract
// groups are searched first, then open customer invoices (also cancelled and
// paid ones when includeClosed is set), then open supplier invoices. The first
// hit of the first source with hits wins.
func (r *PartnerResolver) ByBVRReference(ctx context.Context, ref string, includeClosed bool) (*uuid.UUID, error) {
	groups, err := r.groups.FindGroupsByBVRReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to search contract groups: %w", err)
	}
	if len(groups) > 0 {
		id := groups[0].PartnerID
		return &id, nil
	}

	states := []invoicing.State{invoicing.StateOpen}
	if includeClosed {
		states = []invoicing.State{invoicing.StateOpen, invoicing.StateCancel, invoicing.StatePaid}
	}
	invoices, err := r.invoices.Query(ctx, invoicing.Criteria{BVRReference: ref, States: states})
	if err != nil {
		return nil, fmt.Errorf("failed to search customer invoices: %w", err)
	}
	if len(invoices) == 0 {
		invoices, err = r.invoices.Query(ctx, invoicing.Criteria{
			ReferenceType: invoicing.ReferenceBVR,
			Reference:     ref,
			States:        []invoicing.State{invoicing.StateOpen},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search supplier invoices: %w", err)
		}
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	id := invoices[0].PartnerID
	return &id, nil
}

// BySupplierAmount lists open supplier invoices with the exact total
func (r *PartnerResolver) BySupplierAmount(ctx context.Context, amount decimal.Decimal) ([]invoicing.Invoice, error) {
	return r.invoices.Query(ctx, invoicing.Criteria{
		Type:        invoicing.TypeInInvoice,
		States:      []invoicing.State{invoicing.StateOpen},
		AmountTotal: &amount,
	})
}

// ByMoveLineRef returns the partner of the first posted item with the reference
func (r *PartnerResolver) ByMoveLineRef(ctx context.Context, ref string) (*uuid.UUID, error) {
	lines, err := r.moveLines.FindByRefWithPartner(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to search move lines: %w", err)
	}
	for _, ml := range lines {
		if ml.PartnerID != nil {
			id := *ml.PartnerID
			return &id, nil
		}
	}
	return nil, nil
}

// AccountingPartner maps a partner to the one carrying its accounting entries.
// Unknown partners map to themselves.
func (r *PartnerResolver) AccountingPartner(ctx context.Context, partnerID uuid.UUID) (uuid.UUID, error) {
	p, err := r.partners.FindByID(ctx, partnerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load partner: %w", err)
	}
	if p == nil {
		return partnerID, nil
	}
	return p.AccountingPartnerID(), nil
}
