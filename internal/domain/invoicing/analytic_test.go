package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectAnalyticDefault(t *testing.T) {
	productID := uuid.New()
	partnerID := uuid.New()
	otherProduct := uuid.New()
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)

	generic := AnalyticDefault{Sequence: 10, AnalyticAccountID: uuid.New()}
	byProduct := AnalyticDefault{Sequence: 20, ProductID: &productID, AnalyticAccountID: uuid.New()}
	byProductAndPartner := AnalyticDefault{Sequence: 30, ProductID: &productID, PartnerID: &partnerID, AnalyticAccountID: uuid.New()}
	expired := AnalyticDefault{Sequence: 1, ProductID: &productID, PartnerID: &partnerID, DateStart: &start, DateStop: &stop, AnalyticAccountID: uuid.New()}
	foreign := AnalyticDefault{Sequence: 1, ProductID: &otherProduct, AnalyticAccountID: uuid.New()}

	tests := []struct {
		name  string
		rules []AnalyticDefault
		want  *uuid.UUID
	}{
		{"no rules", nil, nil},
		{"only foreign product", []AnalyticDefault{foreign}, nil},
		{"generic fallback", []AnalyticDefault{foreign, generic}, &generic.AnalyticAccountID},
		{"most specific wins", []AnalyticDefault{generic, byProductAndPartner, byProduct}, &byProductAndPartner.AnalyticAccountID},
		{"expired rule ignored", []AnalyticDefault{expired, byProduct}, &byProduct.AnalyticAccountID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectAnalyticDefault(tt.rules, productID, partnerID, day)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, got.AnalyticAccountID)
		})
	}

	t.Run("equal specificity prefers lower sequence", func(t *testing.T) {
		a := AnalyticDefault{Sequence: 5, ProductID: &productID, AnalyticAccountID: uuid.New()}
		b := AnalyticDefault{Sequence: 2, ProductID: &productID, AnalyticAccountID: uuid.New()}

		got := SelectAnalyticDefault([]AnalyticDefault{a, b}, productID, partnerID, day)

		require.NotNil(t, got)
		assert.Equal(t, b.AnalyticAccountID, got.AnalyticAccountID)
	})
}
