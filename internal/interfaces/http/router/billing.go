package router

import (
	"github.com/erp/billing/internal/infrastructure/auth"
	"github.com/erp/billing/internal/interfaces/http/handler"
	"github.com/erp/billing/internal/interfaces/http/middleware"
)

// Handlers are the billing API handlers. A nil handler leaves its group out.
type Handlers struct {
	Statements *handler.StatementHandler
	Rules      *handler.CompletionRuleHandler
	Groups     *handler.ContractGroupHandler
	Invoicers  *handler.InvoicerHandler
	Jobs       *handler.JobHandler
}

// BillingGroups builds the route groups of the billing API. Every route
// requires the scope matching what it does; without authentication the
// scope checks pass.
func BillingGroups(h Handlers) []*DomainGroup {
	read := middleware.RequireScope(auth.ScopeRead)
	statements := middleware.RequireScope(auth.ScopeStatements)
	generate := middleware.RequireScope(auth.ScopeGenerate)

	var groups []*DomainGroup

	if h.Statements != nil {
		groups = append(groups, NewDomainGroup("statements", "/statements").
			POST("/import", statements, h.Statements.Import).
			POST("/:id/complete", statements, h.Statements.Complete))
	}

	if h.Rules != nil {
		groups = append(groups, NewDomainGroup("completion-rules", "/completion-rules").
			GET("", read, h.Rules.List).
			GET("/strategies", read, h.Rules.Strategies).
			POST("", statements, h.Rules.Create))
	}

	if h.Groups != nil {
		groups = append(groups, NewDomainGroup("contract-groups", "/contract-groups").
			POST("/generate", generate, h.Groups.Generate).
			POST("/clean", generate, h.Groups.Clean).
			GET("/:id", read, h.Groups.Get).
			PATCH("/:id", generate, h.Groups.Update))
	}

	if h.Invoicers != nil {
		groups = append(groups, NewDomainGroup("invoicers", "/invoicers").
			POST("/:id/validate", generate, h.Invoicers.Validate).
			GET("/:id/export", read, h.Invoicers.Export))
	}

	if h.Jobs != nil {
		groups = append(groups, NewDomainGroup("jobs", "/jobs").
			GET("", read, h.Jobs.List).
			GET("/:id", read, h.Jobs.Get).
			GET("/:id/related-action", read, h.Jobs.RelatedAction))
	}

	return groups
}
