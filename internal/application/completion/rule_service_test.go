package completion

import (
	"context"
	"testing"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRuleService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRuleRepository)
	svc := NewRuleService(repo, zaptest.NewLogger(t))
	journalID := uuid.New()

	repo.On("FindByJournal", ctx, journalID).Return([]completion.CompletionRule{
		{ID: uuid.New(), Sequence: 20, Name: "Sponsor name", Strategy: completion.StrategySponsorName},
		{ID: uuid.New(), Sequence: 10, Name: "Partner ref", Strategy: completion.StrategyFromPartnerRef, JournalIDs: []uuid.UUID{journalID}},
	}, nil)
	repo.On("FindAll", ctx).Return([]completion.CompletionRule{}, nil)

	rules, err := svc.List(ctx, journalID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Partner ref", rules[0].Name)
	assert.Equal(t, completion.StrategyFromPartnerRef.Label(), rules[0].StrategyLabel)
	assert.NotNil(t, rules[1].JournalIDs)

	all, err := svc.List(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, all)
	repo.AssertExpectations(t)
}

func TestRuleService_Create(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRuleRepository)
	svc := NewRuleService(repo, zaptest.NewLogger(t))
	journalID := uuid.New()

	repo.On("Save", ctx, mock.AnythingOfType("*completion.CompletionRule")).Return(nil)

	rule, err := svc.Create(ctx, CreateRuleInput{Name: " BVR ", Sequence: 5, Strategy: "from_bvr_ref", JournalIDs: []uuid.UUID{journalID}})
	require.NoError(t, err)
	assert.Equal(t, "BVR", rule.Name)
	assert.Equal(t, "from_bvr_ref", rule.Strategy)
	assert.Equal(t, []uuid.UUID{journalID}, rule.JournalIDs)

	_, err = svc.Create(ctx, CreateRuleInput{Name: "x", Strategy: "by_magic"})
	assert.ErrorIs(t, err, completion.ErrUnknownStrategy)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestRuleService_Strategies(t *testing.T) {
	svc := NewRuleService(new(MockRuleRepository), zaptest.NewLogger(t))
	strategies := svc.Strategies()
	require.Len(t, strategies, len(completion.AllStrategies()))
	for _, s := range strategies {
		assert.NotEmpty(t, s.Label, s.Type)
	}
}
