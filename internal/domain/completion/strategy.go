package completion

import (
	"sort"
	"strings"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// StrategyType names a completion strategy
type StrategyType string

const (
	StrategyFromPartnerRef  StrategyType = "from_partner_ref"
	StrategyFromBVRRef      StrategyType = "from_bvr_ref"
	StrategyLSVDDFromBVRRef StrategyType = "lsv_dd_from_bvr_ref"
	StrategyFromAmount      StrategyType = "from_amount"
	StrategyFromLSVDD       StrategyType = "from_lsv_dd"
	StrategyFromMoveLineRef StrategyType = "from_move_line_ref"
	StrategySponsorName     StrategyType = "sponsor_name"
)

// ErrUnknownStrategy is returned for strategy names outside the known set
var ErrUnknownStrategy = shared.NewDomainError("UNKNOWN_STRATEGY", "Unknown completion strategy")

var strategyLabels = map[StrategyType]string{
	StrategyFromPartnerRef:  "From line reference (based on the partner reference)",
	StrategyFromBVRRef:      "From line reference (based on the BVR reference of the sponsor)",
	StrategyLSVDDFromBVRRef: "[LSV/DD] From line reference (based on the BVR reference of the sponsor)",
	StrategyFromAmount:      "From line amount (based on the amount of the supplier invoice)",
	StrategyFromLSVDD:       "Put LSV DD credits in the clearing account",
	StrategyFromMoveLineRef: "From line reference (based on previous move line references)",
	StrategySponsorName:     "[POST] From sponsor reference (based on the sponsor name in the description)",
}

// AllStrategies lists the strategies in display order
func AllStrategies() []StrategyType {
	return []StrategyType{
		StrategyFromPartnerRef,
		StrategyFromBVRRef,
		StrategyLSVDDFromBVRRef,
		StrategyFromAmount,
		StrategyFromLSVDD,
		StrategyFromMoveLineRef,
		StrategySponsorName,
	}
}

// IsValid reports whether s is a known strategy
func (s StrategyType) IsValid() bool {
	_, ok := strategyLabels[s]
	return ok
}

// Label returns the human description of the strategy
func (s StrategyType) Label() string {
	return strategyLabels[s]
}

// ParseStrategy validates a strategy name
func ParseStrategy(name string) (StrategyType, error) {
	s := StrategyType(strings.TrimSpace(name))
	if !s.IsValid() {
		return "", ErrUnknownStrategy.WithMessage("Unknown completion strategy: " + name)
	}
	return s, nil
}

// CompletionRule binds a strategy to journals with a priority
type CompletionRule struct {
	ID         uuid.UUID
	Sequence   int // lower is evaluated first
	Name       string
	JournalIDs []uuid.UUID
	Strategy   StrategyType
}

// NewCompletionRule creates a validated rule
func NewCompletionRule(name string, sequence int, strategy StrategyType, journalIDs ...uuid.UUID) (*CompletionRule, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Rule name cannot be empty")
	}
	if !strategy.IsValid() {
		return nil, ErrUnknownStrategy
	}
	return &CompletionRule{
		ID:         uuid.New(),
		Sequence:   sequence,
		Name:       strings.TrimSpace(name),
		JournalIDs: journalIDs,
		Strategy:   strategy,
	}, nil
}

// AppliesTo reports whether the rule is configured for the journal
func (r *CompletionRule) AppliesTo(journalID uuid.UUID) bool {
	for _, id := range r.JournalIDs {
		if id == journalID {
			return true
		}
	}
	return false
}

// SortRules orders rules by ascending sequence, keeping the input order of
// equal sequences. The input slice is not modified.
func SortRules(rules []CompletionRule) []CompletionRule {
	sorted := make([]CompletionRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})
	return sorted
}
