package persistence

import (
	"context"

	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements invoicing.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName finds the oldest product with the exact name
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*invoicing.Product, error) {
	return r.findOne(ctx, "name = ?", name)
}

// FindByFundCode finds the product of a fund donation
func (r *GormProductRepository) FindByFundCode(ctx context.Context, fundCode int) (*invoicing.Product, error) {
	if fundCode == 0 {
		return nil, nil
	}
	return r.findOne(ctx, "fund_code = ?", fundCode)
}

func (r *GormProductRepository) findOne(ctx context.Context, query string, args ...any) (*invoicing.Product, error) {
	var model models.ProductModel
	found, err := first(dbFor(ctx, r.db).Order("created_at"), &model, query, args...)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, p *invoicing.Product) error {
	return dbFor(ctx, r.db).Save(models.ProductModelFromDomain(p)).Error
}

// GormAccountRepository implements invoicing.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByCode finds an account by its chart code
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*invoicing.Account, error) {
	var model models.AccountModel
	found, err := first(dbFor(ctx, r.db), &model, "code = ?", code)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, a *invoicing.Account) error {
	return dbFor(ctx, r.db).Save(models.AccountModelFromDomain(a)).Error
}

// GormJournalRepository implements invoicing.JournalRepository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// FindFirstByType finds the journal of the type with the lowest code
func (r *GormJournalRepository) FindFirstByType(ctx context.Context, t invoicing.JournalType) (*invoicing.Journal, error) {
	var model models.JournalModel
	found, err := first(dbFor(ctx, r.db).Order("code"), &model, "type = ?", t)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a journal by its code
func (r *GormJournalRepository) FindByCode(ctx context.Context, code string) (*invoicing.Journal, error) {
	var model models.JournalModel
	found, err := first(dbFor(ctx, r.db), &model, "code = ?", code)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a journal
func (r *GormJournalRepository) Save(ctx context.Context, j *invoicing.Journal) error {
	return dbFor(ctx, r.db).Save(models.JournalModelFromDomain(j)).Error
}

// GormPaymentTermRepository implements invoicing.PaymentTermRepository using GORM
type GormPaymentTermRepository struct {
	db *gorm.DB
}

// NewGormPaymentTermRepository creates a new GormPaymentTermRepository
func NewGormPaymentTermRepository(db *gorm.DB) *GormPaymentTermRepository {
	return &GormPaymentTermRepository{db: db}
}

// FindByName finds a payment term by its name
func (r *GormPaymentTermRepository) FindByName(ctx context.Context, name string) (*invoicing.PaymentTerm, error) {
	var model models.PaymentTermModel
	found, err := first(dbFor(ctx, r.db), &model, "name = ?", name)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a payment term
func (r *GormPaymentTermRepository) Save(ctx context.Context, pt *invoicing.PaymentTerm) error {
	return dbFor(ctx, r.db).Save(models.PaymentTermModelFromDomain(pt)).Error
}

// GormAnalyticDefaultRepository implements invoicing.AnalyticDefaultRepository using GORM
type GormAnalyticDefaultRepository struct {
	db *gorm.DB
}

// NewGormAnalyticDefaultRepository creates a new GormAnalyticDefaultRepository
func NewGormAnalyticDefaultRepository(db *gorm.DB) *GormAnalyticDefaultRepository {
	return &GormAnalyticDefaultRepository{db: db}
}

// FindCandidates lists rules whose product and partner criteria are unset or
// equal to the given ones. Date criteria are left to SelectAnalyticDefault.
func (r *GormAnalyticDefaultRepository) FindCandidates(ctx context.Context, productID, partnerID uuid.UUID) ([]invoicing.AnalyticDefault, error) {
	var rows []models.AnalyticDefaultModel
	if err := dbFor(ctx, r.db).
		Where("product_id IS NULL OR product_id = ?", productID).
		Where("partner_id IS NULL OR partner_id = ?", partnerID).
		Order("sequence, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	defaults := make([]invoicing.AnalyticDefault, len(rows))
	for i := range rows {
		defaults[i] = *rows[i].ToDomain()
	}
	return defaults, nil
}

// Save creates or updates an analytic default
func (r *GormAnalyticDefaultRepository) Save(ctx context.Context, d *invoicing.AnalyticDefault) error {
	return dbFor(ctx, r.db).Save(models.AnalyticDefaultModelFromDomain(d)).Error
}

var (
	_ invoicing.ProductRepository         = (*GormProductRepository)(nil)
	_ invoicing.AccountRepository         = (*GormAccountRepository)(nil)
	_ invoicing.JournalRepository         = (*GormJournalRepository)(nil)
	_ invoicing.PaymentTermRepository     = (*GormPaymentTermRepository)(nil)
	_ invoicing.AnalyticDefaultRepository = (*GormAnalyticDefaultRepository)(nil)
)
