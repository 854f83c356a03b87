package completion

import (
	"context"
	"errors"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var errLookup = errors.New("lookup failed")

type fakePartners struct {
	partners []partner.Partner
	queries  [][2]string
	err      error
}

func (f *fakePartners) add(ref, first, last string, isCompany bool) *partner.Partner {
	p, err := partner.NewPartner(ref, first, last, isCompany)
	if err != nil {
		panic(err)
	}
	f.partners = append(f.partners, *p)
	return &f.partners[len(f.partners)-1]
}

func (f *fakePartners) FindByID(_ context.Context, id uuid.UUID) (*partner.Partner, error) {
	for i := range f.partners {
		if f.partners[i].ID == id {
			p := f.partners[i]
			return &p, nil
		}
	}
	return nil, f.err
}

func (f *fakePartners) FindByRef(_ context.Context, ref string, isCompany bool) ([]partner.Partner, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []partner.Partner
	for _, p := range f.partners {
		if p.Ref == ref && p.IsCompany == isCompany {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePartners) FindByName(_ context.Context, lastName, firstNamePart string) ([]partner.Partner, error) {
	f.queries = append(f.queries, [2]string{lastName, firstNamePart})
	if f.err != nil {
		return nil, f.err
	}
	var out []partner.Partner
	for _, p := range f.partners {
		if p.MatchesName(lastName, firstNamePart) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ByName lets the fake serve as a NameFinder directly
func (f *fakePartners) ByName(ctx context.Context, lastName, firstNamePart string) ([]partner.Partner, error) {
	return f.FindByName(ctx, lastName, firstNamePart)
}

type fakeGroups struct {
	groups []contract.Group
}

func (f *fakeGroups) FindGroupsByBVRReference(_ context.Context, ref string) ([]contract.Group, error) {
	var out []contract.Group
	for _, g := range f.groups {
		if g.BVRReference == ref {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeInvoices struct {
	invoices []invoicing.Invoice
	err      error
}

func (f *fakeInvoices) Query(_ context.Context, c invoicing.Criteria) ([]invoicing.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []invoicing.Invoice
	for _, inv := range f.invoices {
		if c.Type != "" && inv.Type != c.Type {
			continue
		}
		if c.BVRReference != "" && inv.BVRReference != c.BVRReference {
			continue
		}
		if c.ReferenceType != "" && inv.ReferenceType != c.ReferenceType {
			continue
		}
		if c.Reference != "" && inv.Reference != c.Reference {
			continue
		}
		if c.AmountTotal != nil && !inv.AmountTotal.Equal(*c.AmountTotal) {
			continue
		}
		if len(c.States) > 0 && !containsState(c.States, inv.State) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func containsState(states []invoicing.State, s invoicing.State) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

type fakeMoveLines struct {
	lines []MoveLine
}

func (f *fakeMoveLines) FindByRefWithPartner(_ context.Context, ref string) ([]MoveLine, error) {
	var out []MoveLine
	for _, ml := range f.lines {
		if ml.Ref == ref && ml.PartnerID != nil {
			out = append(out, ml)
		}
	}
	return out, nil
}

type fakeAccounts struct {
	accounts []invoicing.Account
}

func (f *fakeAccounts) FindByCode(_ context.Context, code string) (*invoicing.Account, error) {
	for i := range f.accounts {
		if f.accounts[i].Code == code {
			return &f.accounts[i], nil
		}
	}
	return nil, nil
}

type fakeRules struct {
	rules []CompletionRule
}

func (f *fakeRules) FindByJournal(_ context.Context, journalID uuid.UUID) ([]CompletionRule, error) {
	var out []CompletionRule
	for _, r := range f.rules {
		if r.AppliesTo(journalID) {
			out = append(out, r)
		}
	}
	return out, nil
}

type MockDraftBuilder struct {
	mock.Mock
}

func (m *MockDraftBuilder) Build(ctx context.Context, line StatementLine, p *partner.Partner) (FieldUpdate, error) {
	args := m.Called(ctx, line, p)
	return args.Get(0).(FieldUpdate), args.Error(1)
}

func sharedEntity() shared.BaseEntity {
	return shared.NewBaseEntity()
}
