package dto

import (
	"time"

	"github.com/google/uuid"
)

// GenerateInvoicesRequest asks for the invoices of contract groups
type GenerateInvoicesRequest struct {
	GroupIDs   []uuid.UUID `json:"group_ids" binding:"required,min=1"`
	InvoicerID *uuid.UUID  `json:"invoicer_id"`
	Async      bool        `json:"async"`
	Validate   bool        `json:"validate"`
	// DeferNextDate bills each group once without moving contract cursors
	DeferNextDate bool `json:"defer_next_date"`
}

// CleanInvoicesRequest asks to cancel and regenerate future invoices
type CleanInvoicesRequest struct {
	GroupIDs []uuid.UUID `json:"group_ids" binding:"required,min=1"`
	Async    bool        `json:"async"`
}

// UpdateContractGroupRequest holds the writable fields of a contract group.
// Absent fields are left unchanged.
type UpdateContractGroupRequest struct {
	Ref                  *string    `json:"ref" binding:"omitempty,max=64"`
	BVRReference         *string    `json:"bvr_reference" binding:"omitempty,max=32"`
	PaymentTermID        *uuid.UUID `json:"payment_term_id"`
	AdvanceBillingMonths *int       `json:"advance_billing_months" binding:"omitempty,gte=0,lte=24"`
	ChangeMethod         *string    `json:"change_method" binding:"omitempty,oneof=do_nothing clean_invoices"`
	RecurringUnit        *string    `json:"recurring_unit" binding:"omitempty,oneof=day week month year"`
	RecurringValue       *int       `json:"recurring_value" binding:"omitempty,gte=1"`
	NextInvoiceDate      *string    `json:"next_invoice_date" binding:"omitempty,datetime=2006-01-02"`
	Async                bool       `json:"async"`
}

// ContractGroupResponse is a contract group after an update
type ContractGroupResponse struct {
	ID                   uuid.UUID    `json:"id"`
	PartnerID            uuid.UUID    `json:"partner_id"`
	Ref                  string       `json:"ref"`
	BVRReference         string       `json:"bvr_reference"`
	PaymentTermID        *uuid.UUID   `json:"payment_term_id,omitempty"`
	AdvanceBillingMonths int          `json:"advance_billing_months"`
	ChangeMethod         string       `json:"change_method"`
	RecurringUnit        string       `json:"recurring_unit"`
	RecurringValue       int          `json:"recurring_value"`
	NextInvoiceDate      *string      `json:"next_invoice_date,omitempty"`
	Contracts            []uuid.UUID  `json:"contract_ids"`
	AppliedChangeMethod  string       `json:"applied_change_method,omitempty"`
	JobID                *uuid.UUID   `json:"job_id,omitempty"`
	CancelledInvoices    []uuid.UUID  `json:"cancelled_invoice_ids,omitempty"`
}

// CleanInvoicesResponse is the outcome of a clean request
type CleanInvoicesResponse struct {
	JobID             *uuid.UUID  `json:"job_id,omitempty"`
	CancelledInvoices []uuid.UUID `json:"cancelled_invoice_ids"`
}

// ValidateInvoicerResponse is the outcome of an invoicer validation
type ValidateInvoicerResponse struct {
	InvoicerID uuid.UUID `json:"invoicer_id"`
	Opened     int       `json:"opened"`
}

// ExportLinkResponse points at an archived invoicer workbook
type ExportLinkResponse struct {
	InvoicerID  uuid.UUID `json:"invoicer_id"`
	Invoices    int       `json:"invoices"`
	ArchiveKey  string    `json:"archive_key"`
	DownloadURL string    `json:"download_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

// JobListRequest filters the job list
type JobListRequest struct {
	Channel string `form:"channel"`
	State   string `form:"state" binding:"omitempty,oneof=queued started done failed"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// HealthResponse reports the state of the service dependencies
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
