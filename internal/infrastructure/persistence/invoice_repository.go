package persistence

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func preloadInvoiceLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sequence")
	})
}

// Create inserts the invoice and its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	})
}

// Save updates the invoice header and replaces its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	})
}

// Delete removes the invoice and its lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.InvoiceModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound.WithMessage("Invoice not found")
		}
		return nil
	})
}

// FindByID finds an invoice with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	found, err := first(preloadInvoiceLines(dbFor(ctx, r.db)), &model, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoicer lists the invoices attached to an invoicer
func (r *GormInvoiceRepository) FindByInvoicer(ctx context.Context, invoicerID uuid.UUID) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := preloadInvoiceLines(dbFor(ctx, r.db)).
		Where("invoicer_id = ?", invoicerID).
		Order("date_invoice, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// FindUnpaidByContractsAfter lists draft or open customer invoices dated after
// the day that carry a line for one of the contracts
func (r *GormInvoiceRepository) FindUnpaidByContractsAfter(ctx context.Context, contractIDs []uuid.UUID, after time.Time) ([]invoicing.Invoice, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}
	db := dbFor(ctx, r.db)
	withLines := db.Model(&models.InvoiceLineModel{}).
		Select("invoice_id").
		Where("contract_id IN ?", contractIDs)

	var rows []models.InvoiceModel
	if err := preloadInvoiceLines(db).
		Where("type = ?", invoicing.TypeOutInvoice).
		Where("state IN ?", []invoicing.State{invoicing.StateDraft, invoicing.StateOpen}).
		Where("date_invoice > ?", shared.Day(after)).
		Where("id IN (?)", withLines).
		Order("date_invoice, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// Query lists invoices matching the criteria in creation order
func (r *GormInvoiceRepository) Query(ctx context.Context, c invoicing.Criteria) ([]invoicing.Invoice, error) {
	query := preloadInvoiceLines(dbFor(ctx, r.db))
	if c.Type != "" {
		query = query.Where("type = ?", c.Type)
	}
	if len(c.States) > 0 {
		query = query.Where("state IN ?", c.States)
	}
	if c.BVRReference != "" {
		query = query.Where("bvr_reference = ?", c.BVRReference)
	}
	if c.ReferenceType != "" {
		query = query.Where("reference_type = ?", c.ReferenceType)
	}
	if c.Reference != "" {
		query = query.Where("reference = ?", c.Reference)
	}
	if c.AmountTotal != nil {
		query = query.Where("amount_total = ?", *c.AmountTotal)
	}

	var rows []models.InvoiceModel
	if err := query.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

func toInvoices(rows []models.InvoiceModel) []invoicing.Invoice {
	invoices := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices
}

// GormInvoicerRepository implements invoicing.InvoicerRepository using GORM
type GormInvoicerRepository struct {
	db *gorm.DB
}

// NewGormInvoicerRepository creates a new GormInvoicerRepository
func NewGormInvoicerRepository(db *gorm.DB) *GormInvoicerRepository {
	return &GormInvoicerRepository{db: db}
}

// Create inserts an invoicer
func (r *GormInvoicerRepository) Create(ctx context.Context, inv *invoicing.Invoicer) error {
	return dbFor(ctx, r.db).Create(models.InvoicerModelFromDomain(inv)).Error
}

// FindByID finds an invoicer by its ID
func (r *GormInvoicerRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoicer, error) {
	var model models.InvoicerModel
	found, err := first(dbFor(ctx, r.db), &model, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ invoicing.InvoiceRepository  = (*GormInvoiceRepository)(nil)
	_ invoicing.InvoicerRepository = (*GormInvoicerRepository)(nil)
)
