package completion

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleResponse is a completion rule with its strategy description
type RuleResponse struct {
	ID            uuid.UUID   `json:"id"`
	Sequence      int         `json:"sequence"`
	Name          string      `json:"name"`
	Strategy      string      `json:"strategy"`
	StrategyLabel string      `json:"strategy_label"`
	JournalIDs    []uuid.UUID `json:"journal_ids"`
}

// StrategyResponse describes one strategy
type StrategyResponse struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// CreateRuleInput holds the fields of a new rule
type CreateRuleInput struct {
	Name       string      `json:"name" binding:"required,max=128"`
	Sequence   int         `json:"sequence" binding:"min=0"`
	Strategy   string      `json:"strategy" binding:"required"`
	JournalIDs []uuid.UUID `json:"journal_ids"`
}

// RuleService lists and creates completion rules
type RuleService struct {
	rules  completion.RuleRepository
	logger *zap.Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(rules completion.RuleRepository, logger *zap.Logger) *RuleService {
	return &RuleService{rules: rules, logger: logger}
}

// List returns the rules of a journal by priority, or every rule when
// journalID is nil
func (s *RuleService) List(ctx context.Context, journalID uuid.UUID) ([]RuleResponse, error) {
	var (
		rules []completion.CompletionRule
		err   error
	)
	if journalID == uuid.Nil {
		rules, err = s.rules.FindAll(ctx)
	} else {
		rules, err = s.rules.FindByJournal(ctx, journalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list completion rules: %w", err)
	}

	sorted := completion.SortRules(rules)
	out := make([]RuleResponse, 0, len(sorted))
	for i := range sorted {
		out = append(out, toRuleResponse(&sorted[i]))
	}
	return out, nil
}

// Create validates and stores a rule
func (s *RuleService) Create(ctx context.Context, input CreateRuleInput) (*RuleResponse, error) {
	strategy, err := completion.ParseStrategy(input.Strategy)
	if err != nil {
		return nil, err
	}
	rule, err := completion.NewCompletionRule(input.Name, input.Sequence, strategy, input.JournalIDs...)
	if err != nil {
		return nil, err
	}
	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save completion rule: %w", err)
	}

	s.logger.Info("Completion rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("strategy", string(rule.Strategy)),
		zap.Int("sequence", rule.Sequence),
	)
	resp := toRuleResponse(rule)
	return &resp, nil
}

// Strategies lists the available strategies
func (s *RuleService) Strategies() []StrategyResponse {
	all := completion.AllStrategies()
	out := make([]StrategyResponse, 0, len(all))
	for _, st := range all {
		out = append(out, StrategyResponse{Type: string(st), Label: st.Label()})
	}
	return out
}

func toRuleResponse(r *completion.CompletionRule) RuleResponse {
	journals := r.JournalIDs
	if journals == nil {
		journals = []uuid.UUID{}
	}
	return RuleResponse{
		ID:            r.ID,
		Sequence:      r.Sequence,
		Name:          r.Name,
		Strategy:      string(r.Strategy),
		StrategyLabel: r.Strategy.Label(),
		JournalIDs:    journals,
	}
}
