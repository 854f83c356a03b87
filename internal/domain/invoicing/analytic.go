package invoicing

import (
	"sort"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// AnalyticDefault assigns an analytic account to invoice lines matching its
// optional criteria. Unset criteria match anything.
type AnalyticDefault struct {
	shared.BaseEntity
	ProductID         *uuid.UUID
	PartnerID         *uuid.UUID
	DateStart         *time.Time
	DateStop          *time.Time
	Sequence          int
	AnalyticAccountID uuid.UUID
}

func (d *AnalyticDefault) matches(productID, partnerID uuid.UUID, date time.Time) bool {
	if d.ProductID != nil && *d.ProductID != productID {
		return false
	}
	if d.PartnerID != nil && *d.PartnerID != partnerID {
		return false
	}
	if d.DateStart != nil && date.Before(shared.Day(*d.DateStart)) {
		return false
	}
	if d.DateStop != nil && date.After(shared.Day(*d.DateStop)) {
		return false
	}
	return true
}

func (d *AnalyticDefault) specificity() int {
	n := 0
	if d.ProductID != nil {
		n++
	}
	if d.PartnerID != nil {
		n++
	}
	if d.DateStart != nil {
		n++
	}
	if d.DateStop != nil {
		n++
	}
	return n
}

// SelectAnalyticDefault returns the most specific rule matching the product,
// partner and date. Ties go to the lowest sequence. Nil when nothing matches.
func SelectAnalyticDefault(rules []AnalyticDefault, productID, partnerID uuid.UUID, date time.Time) *AnalyticDefault {
	candidates := make([]AnalyticDefault, len(rules))
	copy(candidates, rules)
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Sequence < candidates[b].Sequence
	})

	day := shared.Day(date)
	var best *AnalyticDefault
	bestScore := -1
	for i := range candidates {
		rule := &candidates[i]
		if !rule.matches(productID, partnerID, day) {
			continue
		}
		if score := rule.specificity(); score > bestScore {
			best = rule
			bestScore = score
		}
	}
	return best
}
