package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	completionapp "github.com/erp/billing/internal/application/completion"
	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRuleRouter(rules RuleManager) *gin.Engine {
	h := NewCompletionRuleHandler(rules)
	r := gin.New()
	r.GET("/completion-rules", h.List)
	r.GET("/completion-rules/strategies", h.Strategies)
	r.POST("/completion-rules", h.Create)
	return r
}

func TestCompletionRuleHandlerList(t *testing.T) {
	journalID := uuid.New()

	t.Run("filtered by journal", func(t *testing.T) {
		rules := new(mockRuleManager)
		rules.On("List", mock.Anything, journalID).Return([]completionapp.RuleResponse{
			{ID: uuid.New(), Sequence: 10, Name: "From BVR reference", Strategy: "from_bvr_ref"},
			{ID: uuid.New(), Sequence: 20, Name: "From sponsor name", Strategy: "sponsor_name"},
		}, nil)

		w := httptest.NewRecorder()
		newRuleRouter(rules).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/completion-rules?journal_id="+journalID.String(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeResponse(t, w).Data, 2)
		rules.AssertExpectations(t)
	})

	t.Run("all rules", func(t *testing.T) {
		rules := new(mockRuleManager)
		rules.On("List", mock.Anything, uuid.Nil).Return([]completionapp.RuleResponse{}, nil)

		w := httptest.NewRecorder()
		newRuleRouter(rules).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/completion-rules", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		rules.AssertExpectations(t)
	})

	t.Run("malformed journal", func(t *testing.T) {
		rules := new(mockRuleManager)
		w := httptest.NewRecorder()
		newRuleRouter(rules).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/completion-rules?journal_id=x", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		rules.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestCompletionRuleHandlerCreate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		rules := new(mockRuleManager)
		rules.On("Create", mock.Anything, completionapp.CreateRuleInput{
			Name:     "From BVR reference",
			Sequence: 10,
			Strategy: "from_bvr_ref",
		}).Return(&completionapp.RuleResponse{ID: uuid.New(), Name: "From BVR reference"}, nil)

		body := `{"name":"From BVR reference","sequence":10,"strategy":"from_bvr_ref"}`
		w := httptest.NewRecorder()
		newRuleRouter(rules).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/completion-rules", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, w.Code)
		rules.AssertExpectations(t)
	})

	t.Run("missing name", func(t *testing.T) {
		rules := new(mockRuleManager)
		w := httptest.NewRecorder()
		newRuleRouter(rules).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/completion-rules", strings.NewReader(`{"strategy":"from_bvr_ref"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		rules := new(mockRuleManager)
		rules.On("Create", mock.Anything, mock.Anything).Return(nil, completion.ErrUnknownStrategy)

		w := httptest.NewRecorder()
		newRuleRouter(rules).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/completion-rules", strings.NewReader(`{"name":"x","strategy":"astrology"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
	})
}

func TestCompletionRuleHandlerStrategies(t *testing.T) {
	rules := new(mockRuleManager)
	rules.On("Strategies").Return([]completionapp.StrategyResponse{
		{Type: "from_bvr_ref", Label: "From BVR reference"},
	})

	w := httptest.NewRecorder()
	newRuleRouter(rules).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/completion-rules/strategies", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResponse(t, w).Data, 1)
}
