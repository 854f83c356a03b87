package handler

import (
	"time"

	recurringapp "github.com/erp/billing/internal/application/recurring"
	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractGroupHandler handles invoice generation and contract group updates
type ContractGroupHandler struct {
	BaseHandler
	generator InvoiceGenerator
	groups    GroupUpdater
}

// NewContractGroupHandler creates a new ContractGroupHandler
func NewContractGroupHandler(generator InvoiceGenerator, groups GroupUpdater) *ContractGroupHandler {
	return &ContractGroupHandler{generator: generator, groups: groups}
}

// Generate bills the given groups. With async the work is queued and 202
// carries the job id; otherwise the report comes back with 201.
//
// POST /contract-groups/generate
func (h *ContractGroupHandler) Generate(c *gin.Context) {
	var req dto.GenerateInvoicesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	genReq := recurringapp.GenerationRequest{
		GroupIDs: req.GroupIDs,
		Async:    req.Async,
		Validate: req.Validate,
		Options:  recurringapp.GenerateOptions{DeferNextDateUpdate: req.DeferNextDate},
	}
	if req.InvoicerID != nil {
		genReq.InvoicerID = *req.InvoicerID
	}

	ticket, err := h.generator.RequestGeneration(c.Request.Context(), genReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if ticket.JobID != nil {
		h.Accepted(c, ticket)
		return
	}
	h.Created(c, ticket)
}

// Clean cancels the unpaid future invoices of the groups and regenerates them
//
// POST /contract-groups/clean
func (h *ContractGroupHandler) Clean(c *gin.Context) {
	var req dto.CleanInvoicesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	jobID, cancelled, err := h.generator.RequestClean(c.Request.Context(), req.GroupIDs, req.Async)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := dto.CleanInvoicesResponse{JobID: jobID, CancelledInvoices: invoiceIDs(cancelled)}
	if jobID != nil {
		h.Accepted(c, resp)
		return
	}
	h.Success(c, resp)
}

// Get returns a contract group
//
// GET /contract-groups/:id
func (h *ContractGroupHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	group, err := h.groups.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toGroupResponse(group))
}

// Update changes a contract group and runs its change method
//
// PATCH /contract-groups/:id
func (h *ContractGroupHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateContractGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	changes := contract.GroupChanges{
		Ref:                  req.Ref,
		BVRReference:         req.BVRReference,
		PaymentTermID:        req.PaymentTermID,
		AdvanceBillingMonths: req.AdvanceBillingMonths,
		RecurringValue:       req.RecurringValue,
	}
	if req.ChangeMethod != nil {
		m := contract.ChangeMethod(*req.ChangeMethod)
		changes.ChangeMethod = &m
	}
	if req.RecurringUnit != nil {
		u := contract.RecurringUnit(*req.RecurringUnit)
		changes.RecurringUnit = &u
	}
	if req.NextInvoiceDate != nil {
		// already checked by the datetime binding
		d, _ := time.Parse(time.DateOnly, *req.NextInvoiceDate)
		changes.NextInvoiceDate = &d
	}

	result, err := h.groups.Update(c.Request.Context(), id, changes, req.Async)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := toGroupResponse(result.Group)
	resp.AppliedChangeMethod = string(result.ChangeMethod)
	resp.JobID = result.JobID
	resp.CancelledInvoices = invoiceIDs(result.Cancelled)
	h.Success(c, resp)
}

func toGroupResponse(g *contract.Group) dto.ContractGroupResponse {
	resp := dto.ContractGroupResponse{
		ID:                   g.ID,
		PartnerID:            g.PartnerID,
		Ref:                  g.Ref,
		BVRReference:         g.BVRReference,
		PaymentTermID:        g.PaymentTermID,
		AdvanceBillingMonths: g.AdvanceBillingMonths,
		ChangeMethod:         string(g.ChangeMethod),
		RecurringUnit:        string(g.RecurringUnit),
		RecurringValue:       g.RecurringValue,
		Contracts:            g.ContractIDs(),
	}
	if next := g.NextInvoiceDate(contract.DefaultGenerationStates); next != nil {
		s := next.Format(time.DateOnly)
		resp.NextInvoiceDate = &s
	}
	return resp
}

func invoiceIDs(invoices []invoicing.Invoice) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	return ids
}
