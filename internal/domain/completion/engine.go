package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// DraftBuilder synthesizes the invoice (or gift label) backing a payment made
// by a known partner
type DraftBuilder interface {
	Build(ctx context.Context, line StatementLine, p *partner.Partner) (FieldUpdate, error)
}

// RuleSource lists the rules of a journal
type RuleSource interface {
	FindByJournal(ctx context.Context, journalID uuid.UUID) ([]CompletionRule, error)
}

// AccountFinder finds ledger accounts by code
type AccountFinder interface {
	FindByCode(ctx context.Context, code string) (*invoicing.Account, error)
}

// Match is the outcome of completing one line
type Match struct {
	Update FieldUpdate
	// Rule is the rule that produced the update, nil when nothing matched
	Rule *CompletionRule
}

// RuleEngine runs the completion rules of a line's journal
type RuleEngine struct {
	rules    RuleSource
	resolver *PartnerResolver
	drafts   DraftBuilder
	accounts AccountFinder
	settings Settings
	logger   *zap.Logger
}

// NewRuleEngine creates a new RuleEngine. drafts may be nil, in which case
// partner-reference matches only set the partner.
func NewRuleEngine(rules RuleSource, resolver *PartnerResolver, drafts DraftBuilder, accounts AccountFinder, settings Settings, logger *zap.Logger) *RuleEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleEngine{
		rules:    rules,
		resolver: resolver,
		drafts:   drafts,
		accounts: accounts,
		settings: settings,
		logger:   logger,
	}
}

// AutoComplete returns the first non-empty update proposed by the journal's
// rules, or an empty update when none matches
func (e *RuleEngine) AutoComplete(ctx context.Context, line StatementLine) (FieldUpdate, error) {
	m, err := e.Complete(ctx, line)
	if err != nil {
		return FieldUpdate{}, err
	}
	return m.Update, nil
}

// Complete is AutoComplete that also reports which rule matched
func (e *RuleEngine) Complete(ctx context.Context, line StatementLine) (Match, error) {
	rules, err := e.rules.FindByJournal(ctx, line.JournalID)
	if err != nil {
		return Match{}, fmt.Errorf("failed to load completion rules: %w", err)
	}
	return e.Evaluate(ctx, rules, line)
}

// Evaluate runs the given rules by ascending sequence and stops at the first
// non-empty result. A failing rule is logged and skipped; only context
// cancellation aborts the evaluation.
func (e *RuleEngine) Evaluate(ctx context.Context, rules []CompletionRule, line StatementLine) (Match, error) {
	for _, rule := range SortRules(rules) {
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}

		update, err := e.Apply(ctx, rule.Strategy, line)
		if err != nil {
			if ctx.Err() != nil {
				return Match{}, ctx.Err()
			}
			e.logger.Warn("Completion rule failed",
				zap.String("rule", rule.Name),
				zap.String("strategy", string(rule.Strategy)),
				zap.String("line_name", line.Name),
				zap.String("ref", line.Ref),
				zap.Error(err),
			)
			continue
		}
		if !update.IsEmpty() {
			r := rule
			return Match{Update: update, Rule: &r}, nil
		}
	}
	return Match{}, nil
}

// Apply runs a single strategy on the line
func (e *RuleEngine) Apply(ctx context.Context, strategy StrategyType, line StatementLine) (FieldUpdate, error) {
	switch strategy {
	case StrategyFromPartnerRef:
		return e.fromPartnerRef(ctx, line)
	case StrategyFromBVRRef:
		return e.fromBVRRef(ctx, line, false)
	case StrategyLSVDDFromBVRRef:
		return e.fromBVRRef(ctx, line, true)
	case StrategyFromAmount:
		return e.fromAmount(ctx, line)
	case StrategyFromLSVDD:
		return e.fromLSVDD(ctx, line)
	case StrategyFromMoveLineRef:
		return e.fromMoveLineRef(ctx, line)
	case StrategySponsorName:
		return e.sponsorName(ctx, line)
	default:
		return FieldUpdate{}, ErrUnknownStrategy.WithMessage("Unknown completion strategy: " + string(strategy))
	}
}

func (e *RuleEngine) fromPartnerRef(ctx context.Context, line StatementLine) (FieldUpdate, error) {
	code, err := Reference(line.Ref).PartnerCode()
	if err != nil {
		return FieldUpdate{}, err
	}
	partners, err := e.resolver.ByPartnerRef(ctx, code)
	if err != nil {
		return FieldUpdate{}, err
	}

	switch len(partners) {
	case 0:
		return FieldUpdate{}, nil
	case 1:
		p := &partners[0]
		var update FieldUpdate
		if e.drafts != nil {
			// the payment has no open invoice, synthesize one from the payment type
			update, err = e.drafts.Build(ctx, line, p)
			if err != nil {
				return FieldUpdate{}, fmt.Errorf("failed to build invoice draft: %w", err)
			}
		}
		id := p.AccountingPartnerID()
		update.PartnerID = &id
		return update, nil
	default:
		e.logger.Warn(fmt.Sprintf("Line named \"%s\" (Ref:%s) was matched by more than one partner while looking on partners", line.Name, line.Ref),
			zap.String("line_name", line.Name),
			zap.String("ref", line.Ref),
			zap.Int("matches", len(partners)),
		)
		return FieldUpdate{}, nil
	}
}

func (e *RuleEngine) fromBVRRef(ctx context.Context, line StatementLine, includeClosed bool) (FieldUpdate, error) {
	found, err := e.resolver.ByBVRReference(ctx, line.Ref, includeClosed)
	if err != nil || found == nil {
		return FieldUpdate{}, err
	}
	return e.partnerUpdate(ctx, *found)
}

func (e *RuleEngine) fromAmount(ctx context.Context, line StatementLine) (FieldUpdate, error) {
	if !line.Amount.IsNegative() {
		return FieldUpdate{}, nil
	}
	invoices, err := e.resolver.BySupplierAmount(ctx, line.Amount.Abs())
	if err != nil || len(invoices) == 0 {
		return FieldUpdate{}, err
	}

	first := invoices[0].PartnerID
	for _, inv := range invoices[1:] {
		if inv.PartnerID != first {
			e.logger.Warn(fmt.Sprintf("Line named \"%s\" (Ref:%s) was matched by more than one invoice while looking on open supplier invoices", line.Name, line.Ref),
				zap.String("line_name", line.Name),
				zap.String("ref", line.Ref),
				zap.Int("matches", len(invoices)),
			)
			break
		}
	}
	return e.partnerUpdate(ctx, first)
}

func (e *RuleEngine) fromLSVDD(ctx context.Context, line StatementLine) (FieldUpdate, error) {
	label := norm.NFC.String(line.Label())
	matched := false
	for _, descriptor := range e.settings.LSVDescriptors {
		if strings.Contains(label, norm.NFC.String(descriptor)) {
			matched = true
			break
		}
	}
	if !matched {
		return FieldUpdate{}, nil
	}

	account, err := e.accounts.FindByCode(ctx, e.settings.ClearingAccountCode)
	if err != nil || account == nil {
		return FieldUpdate{}, err
	}
	id := account.ID
	return FieldUpdate{AccountID: &id}, nil
}

func (e *RuleEngine) fromMoveLineRef(ctx context.Context, line StatementLine) (FieldUpdate, error) {
	found, err := e.resolver.ByMoveLineRef(ctx, line.Ref)
	if err != nil || found == nil {
		return FieldUpdate{}, err
	}
	return e.partnerUpdate(ctx, *found)
}

func (e *RuleEngine) sponsorName(ctx context.Context, line StatementLine) (FieldUpdate, error) {
	found, err := MatchSponsorName(ctx, line.Name, e.resolver)
	if err != nil || found == nil {
		return FieldUpdate{}, err
	}
	return FieldUpdate{PartnerID: found}, nil
}

func (e *RuleEngine) partnerUpdate(ctx context.Context, partnerID uuid.UUID) (FieldUpdate, error) {
	id, err := e.resolver.AccountingPartner(ctx, partnerID)
	if err != nil {
		return FieldUpdate{}, err
	}
	return FieldUpdate{PartnerID: &id}, nil
}
