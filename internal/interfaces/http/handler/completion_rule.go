package handler

import (
	completionapp "github.com/erp/billing/internal/application/completion"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompletionRuleHandler handles completion rule endpoints
type CompletionRuleHandler struct {
	BaseHandler
	rules RuleManager
}

// NewCompletionRuleHandler creates a new CompletionRuleHandler
func NewCompletionRuleHandler(rules RuleManager) *CompletionRuleHandler {
	return &CompletionRuleHandler{rules: rules}
}

// List returns the rules of ?journal_id= by priority, or all rules
//
// GET /completion-rules
func (h *CompletionRuleHandler) List(c *gin.Context) {
	journalID := uuid.Nil
	if raw := c.Query("journal_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid journal_id: must be a UUID")
			return
		}
		journalID = id
	}

	rules, err := h.rules.List(c.Request.Context(), journalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rules)
}

// Create adds a rule
//
// POST /completion-rules
func (h *CompletionRuleHandler) Create(c *gin.Context) {
	var input completionapp.CreateRuleInput
	if !h.bindJSON(c, &input) {
		return
	}
	rule, err := h.rules.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rule)
}

// Strategies lists the strategies a rule can use
//
// GET /completion-rules/strategies
func (h *CompletionRuleHandler) Strategies(c *gin.Context) {
	h.Success(c, h.rules.Strategies())
}
