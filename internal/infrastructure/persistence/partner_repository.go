package persistence

import (
	"context"

	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartnerRepository implements partner.Repository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByID finds a partner by its ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	var model models.PartnerModel
	found, err := first(dbFor(ctx, r.db), &model, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRef finds partners carrying the given code
func (r *GormPartnerRepository) FindByRef(ctx context.Context, ref string, isCompany bool) ([]partner.Partner, error) {
	var rows []models.PartnerModel
	if err := dbFor(ctx, r.db).
		Where("ref = ? AND is_company = ?", ref, isCompany).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPartners(rows), nil
}

// FindByName narrows candidates on the folded last name in SQL and checks
// the first name in Go, where Unicode folding is reliable on every driver.
func (r *GormPartnerRepository) FindByName(ctx context.Context, lastName, firstNamePart string) ([]partner.Partner, error) {
	var rows []models.PartnerModel
	if err := dbFor(ctx, r.db).
		Where("last_name_key = ?", partner.NameKey(lastName)).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	var matches []partner.Partner
	for _, p := range toPartners(rows) {
		if p.MatchesName(lastName, firstNamePart) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Save creates or updates a partner
func (r *GormPartnerRepository) Save(ctx context.Context, p *partner.Partner) error {
	return dbFor(ctx, r.db).Save(models.PartnerModelFromDomain(p)).Error
}

func toPartners(rows []models.PartnerModel) []partner.Partner {
	partners := make([]partner.Partner, len(rows))
	for i := range rows {
		partners[i] = *rows[i].ToDomain()
	}
	return partners
}

// Ensure GormPartnerRepository implements partner.Repository
var _ partner.Repository = (*GormPartnerRepository)(nil)
