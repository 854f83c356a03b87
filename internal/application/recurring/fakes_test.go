package recurring

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errSave = errors.New("save failed")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeContracts keeps groups in memory; callers mutate the stored pointers
type fakeContracts struct {
	groups     map[uuid.UUID]*contract.Group
	order      []uuid.UUID
	savedCount map[uuid.UUID]int
	failSave   map[uuid.UUID]bool // by contract ID
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{
		groups:     make(map[uuid.UUID]*contract.Group),
		savedCount: make(map[uuid.UUID]int),
		failSave:   make(map[uuid.UUID]bool),
	}
}

func (f *fakeContracts) add(g *contract.Group) *contract.Group {
	f.groups[g.ID] = g
	f.order = append(f.order, g.ID)
	return g
}

func (f *fakeContracts) FindGroupByID(_ context.Context, id uuid.UUID) (*contract.Group, error) {
	return f.groups[id], nil
}

func (f *fakeContracts) FindGroupsByIDs(ctx context.Context, ids []uuid.UUID) ([]*contract.Group, error) {
	var out []*contract.Group
	for _, id := range ids {
		if g := f.groups[id]; g != nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeContracts) ListGroupIDs(_ context.Context) ([]uuid.UUID, error) {
	return append([]uuid.UUID(nil), f.order...), nil
}

func (f *fakeContracts) FindGroupsByBVRReference(_ context.Context, ref string) ([]contract.Group, error) {
	var out []contract.Group
	for _, id := range f.order {
		if g := f.groups[id]; g.BVRReference == ref {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeContracts) FindForGift(_ context.Context, partnerID uuid.UUID, number int) ([]contract.Contract, error) {
	return nil, nil
}

func (f *fakeContracts) SaveGroup(_ context.Context, g *contract.Group) error {
	f.groups[g.ID] = g
	return nil
}

func (f *fakeContracts) SaveContract(_ context.Context, c *contract.Contract) error {
	if f.failSave[c.ID] {
		return errSave
	}
	f.savedCount[c.ID]++
	return nil
}

// fakeInvoices stores invoice copies in creation order
type fakeInvoices struct {
	invoices []invoicing.Invoice
}

func (f *fakeInvoices) Create(_ context.Context, inv *invoicing.Invoice) error {
	f.invoices = append(f.invoices, *inv)
	return nil
}

func (f *fakeInvoices) Save(_ context.Context, inv *invoicing.Invoice) error {
	for i := range f.invoices {
		if f.invoices[i].ID == inv.ID {
			f.invoices[i] = *inv
			return nil
		}
	}
	return shared.ErrNotFound
}

func (f *fakeInvoices) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			f.invoices = append(f.invoices[:i], f.invoices[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeInvoices) FindByID(_ context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			inv := f.invoices[i]
			return &inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvoices) FindByInvoicer(_ context.Context, invoicerID uuid.UUID) ([]invoicing.Invoice, error) {
	var out []invoicing.Invoice
	for _, inv := range f.invoices {
		if inv.InvoicerID != nil && *inv.InvoicerID == invoicerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoices) FindUnpaidByContractsAfter(_ context.Context, contractIDs []uuid.UUID, after time.Time) ([]invoicing.Invoice, error) {
	wanted := make(map[uuid.UUID]bool, len(contractIDs))
	for _, id := range contractIDs {
		wanted[id] = true
	}
	var out []invoicing.Invoice
	for _, inv := range f.invoices {
		if inv.Type != invoicing.TypeOutInvoice || !inv.IsUnpaid() || !inv.DateInvoice.After(after) {
			continue
		}
		for _, id := range inv.ContractIDs() {
			if wanted[id] {
				out = append(out, inv)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeInvoices) Query(_ context.Context, c invoicing.Criteria) ([]invoicing.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeInvoices) inState(state invoicing.State) []invoicing.Invoice {
	var out []invoicing.Invoice
	for _, inv := range f.invoices {
		if inv.State == state {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateInvoice.Before(out[j].DateInvoice) })
	return out
}

type fakeInvoicers struct {
	created []*invoicing.Invoicer
}

func (f *fakeInvoicers) Create(_ context.Context, inv *invoicing.Invoicer) error {
	f.created = append(f.created, inv)
	return nil
}

func (f *fakeInvoicers) FindByID(_ context.Context, id uuid.UUID) (*invoicing.Invoicer, error) {
	for _, inv := range f.created {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

type fakePartners map[uuid.UUID]*partner.Partner

func (f fakePartners) FindByID(_ context.Context, id uuid.UUID) (*partner.Partner, error) {
	return f[id], nil
}

type fakeJournals struct {
	journal *invoicing.Journal
}

func (f *fakeJournals) FindFirstByType(_ context.Context, t invoicing.JournalType) (*invoicing.Journal, error) {
	return f.journal, nil
}

func (f *fakeJournals) FindByCode(_ context.Context, code string) (*invoicing.Journal, error) {
	if f.journal != nil && f.journal.Code == code {
		return f.journal, nil
	}
	return nil, nil
}

type MockJobs struct {
	mock.Mock
}

func (m *MockJobs) CountByChannelAndState(ctx context.Context, channel string, state scheduler.JobState) (int, error) {
	args := m.Called(ctx, channel, state)
	return args.Int(0), args.Error(1)
}

func (m *MockJobs) Delay(ctx context.Context, channel, model, method string, a any) (*scheduler.Job, error) {
	args := m.Called(ctx, channel, model, method, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.Job), args.Error(1)
}

// fixture wires a GenerationService on fakes with today = 2024-01-15
type fixture struct {
	contracts *fakeContracts
	invoices  *fakeInvoices
	invoicers *fakeInvoicers
	partners  fakePartners
	journal   *invoicing.Journal
	jobs      *MockJobs
	svc       *GenerationService
	groups    *GroupService
}

var fixtureToday = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	return newFixtureAt(t, fixtureToday)
}

func newFixtureAt(t *testing.T, today time.Time) *fixture {
	f := &fixture{
		contracts: newFakeContracts(),
		invoices:  &fakeInvoices{},
		invoicers: &fakeInvoicers{},
		partners:  fakePartners{},
		journal:   &invoicing.Journal{BaseEntity: shared.NewBaseEntity(), Code: "SAJ", Type: invoicing.JournalSale},
		jobs:      new(MockJobs),
	}
	scope := NewNoOpTransactionScope(f.contracts, f.invoices)
	f.svc = NewGenerationService(GenerationDeps{
		TX:        scope,
		Groups:    f.contracts,
		Partners:  f.partners,
		Journals:  &fakeJournals{journal: f.journal},
		Invoicers: f.invoicers,
		Invoices:  f.invoices,
		Workflow:  invoicing.NewWorkflowService(f.invoices),
		Guard:     NewRegenerationGuard(f.jobs),
		Jobs:      f.jobs,
	}, GenerationConfig{}, shared.FixedClock{At: today}, zaptest.NewLogger(t))
	f.groups = NewGroupService(scope, f.contracts, f.svc, nil, zaptest.NewLogger(t))
	return f
}

// addGroup creates a monthly group whose partner has a receivable account
func (f *fixture) addGroup(t *testing.T) *contract.Group {
	p, err := partner.NewPartner("42", "Anna", "Muster", false)
	require.NoError(t, err)
	receivable := uuid.New()
	p.ReceivableAccountID = &receivable
	f.partners[p.ID] = p

	g := contract.NewGroup(p.ID)
	g.BVRReference = "000000000000004200001100000"
	term := uuid.New()
	g.PaymentTermID = &term
	return f.contracts.add(g)
}

// addContract adds an active contract billed 42.00 a month from start
func (f *fixture) addContract(g *contract.Group, start time.Time) *contract.Contract {
	c := contract.NewContract(g.ID, g.PartnerID, len(g.Contracts)+1, start)
	c.AddLine(uuid.New(), "Sponsorship", decimal.NewFromInt(42), decimal.NewFromInt(1))
	c.State = contract.StateActive
	g.Contracts = append(g.Contracts, c)
	return c
}
