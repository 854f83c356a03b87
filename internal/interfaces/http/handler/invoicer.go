package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoicerHandler handles invoicer validation and export
type InvoicerHandler struct {
	BaseHandler
	generator InvoiceGenerator
	exporter  InvoicerExporter
	linkTTL   time.Duration
}

// NewInvoicerHandler creates a new InvoicerHandler. linkTTL is the lifetime
// of archived workbook download links.
func NewInvoicerHandler(generator InvoiceGenerator, exporter InvoicerExporter, linkTTL time.Duration) *InvoicerHandler {
	return &InvoicerHandler{generator: generator, exporter: exporter, linkTTL: linkTTL}
}

// Validate opens every draft invoice of the invoicer
//
// POST /invoicers/:id/validate
func (h *InvoicerHandler) Validate(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	opened, err := h.generator.ValidateInvoices(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ValidateInvoicerResponse{InvoicerID: id, Opened: opened})
}

// Export streams the invoicer workbook. With ?archive=true the workbook is
// stored instead and a download link is returned.
//
// GET /invoicers/:id/export
func (h *InvoicerHandler) Export(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	archive, _ := strconv.ParseBool(c.Query("archive"))
	if archive {
		report, err := h.exporter.ExportAndArchive(c.Request.Context(), id, h.linkTTL)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, dto.ExportLinkResponse{
			InvoicerID:  report.InvoicerID,
			Invoices:    report.Invoices,
			ArchiveKey:  report.ArchiveKey,
			DownloadURL: report.DownloadURL,
			ExpiresAt:   report.ExpiresAt,
		})
		return
	}

	report, err := h.exporter.Export(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, report.Data)
}
