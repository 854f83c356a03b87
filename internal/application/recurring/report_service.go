package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	invoicesSheet = "Invoices"
	linesSheet    = "Lines"
)

// InvoicerReport is an exported invoicer workbook
type InvoicerReport struct {
	InvoicerID  uuid.UUID `json:"invoicer_id"`
	Filename    string    `json:"filename"`
	Invoices    int       `json:"invoices"`
	Data        []byte    `json:"-"`
	ArchiveKey  string    `json:"archive_key,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// ReportService exports the invoices of an invoicer as an XLSX workbook
type ReportService struct {
	invoicers invoicing.InvoicerRepository
	invoices  invoicing.InvoiceRepository
	partners  PartnerFinder
	archive   storage.ObjectStorage
	prefix    string
	logger    *zap.Logger
}

// NewReportService creates a new ReportService. archive may be nil.
func NewReportService(invoicers invoicing.InvoicerRepository, invoices invoicing.InvoiceRepository, partners PartnerFinder, archive storage.ObjectStorage, prefix string, logger *zap.Logger) *ReportService {
	if archive == nil {
		archive = storage.NewNoopObjectStorage()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		invoicers: invoicers,
		invoices:  invoices,
		partners:  partners,
		archive:   archive,
		prefix:    prefix,
		logger:    logger,
	}
}

// Export builds the workbook: one row per invoice on the first sheet and one
// row per invoice line on the second
func (s *ReportService) Export(ctx context.Context, invoicerID uuid.UUID) (*InvoicerReport, error) {
	invoicer, err := s.invoicers.FindByID(ctx, invoicerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoicer: %w", err)
	}
	if invoicer == nil {
		return nil, shared.ErrNotFound.WithMessage("Invoicer not found: " + invoicerID.String())
	}
	invoices, err := s.invoices.FindByInvoicer(ctx, invoicerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoicer invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(invoicesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := setHeader(f, invoicesSheet, []string{
		"Invoice ID", "Partner", "Date", "State", "BVR Reference", "Lines", "Total",
	}); err != nil {
		return nil, err
	}
	if err := setHeader(f, linesSheet, []string{
		"Invoice ID", "Description", "Contract ID", "Quantity", "Unit Price", "Subtotal",
	}); err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string)
	lineRow := 2
	for i := range invoices {
		inv := &invoices[i]
		name, err := s.partnerName(ctx, names, inv.PartnerID)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(invoicesSheet, cell(1, i+2), &[]any{
			inv.ID.String(),
			name,
			inv.DateInvoice.Format("2006-01-02"),
			string(inv.State),
			inv.BVRReference,
			len(inv.Lines),
			inv.AmountTotal.InexactFloat64(),
		}); err != nil {
			return nil, err
		}
		for _, l := range inv.Lines {
			contractID := ""
			if l.ContractID != nil {
				contractID = l.ContractID.String()
			}
			if err := f.SetSheetRow(linesSheet, cell(1, lineRow), &[]any{
				inv.ID.String(),
				l.Name,
				contractID,
				l.Quantity.InexactFloat64(),
				l.PriceUnit.InexactFloat64(),
				l.Subtotal().InexactFloat64(),
			}); err != nil {
				return nil, err
			}
			lineRow++
		}
	}
	if idx, err := f.GetSheetIndex(invoicesSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &InvoicerReport{
		InvoicerID: invoicerID,
		Filename:   fmt.Sprintf("invoicer-%s.xlsx", invoicer.CreatedAt.Format("20060102-150405")),
		Invoices:   len(invoices),
		Data:       buf.Bytes(),
	}, nil
}

// ExportAndArchive exports the workbook, stores it and returns a download link
func (s *ReportService) ExportAndArchive(ctx context.Context, invoicerID uuid.UUID, linkTTL time.Duration) (*InvoicerReport, error) {
	report, err := s.Export(ctx, invoicerID)
	if err != nil {
		return nil, err
	}

	key := storage.InvoicerReportKey(s.prefix, invoicerID)
	if err := s.archive.Upload(ctx, key, report.Data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return nil, fmt.Errorf("failed to archive invoicer report: %w", err)
	}
	report.ArchiveKey = key

	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, linkTTL)
	if err != nil {
		s.logger.Warn("No download link for invoicer report",
			zap.String("invoicer_id", invoicerID.String()),
			zap.Error(err))
		return report, nil
	}
	report.DownloadURL = url
	report.ExpiresAt = expiresAt
	return report, nil
}

func (s *ReportService) partnerName(ctx context.Context, cache map[uuid.UUID]string, id uuid.UUID) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}
	p, err := s.partners.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load partner: %w", err)
	}
	name := id.String()
	if p != nil {
		name = p.DisplayName()
	}
	cache[id] = name
	return name, nil
}

func setHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cell(i+1, 1), h); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(1, 1), cell(len(headers), 1), style)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
