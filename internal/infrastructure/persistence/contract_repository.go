package persistence

import (
	"context"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormContractRepository implements contract.Repository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

func preloadContracts(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Contracts", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at, id")
		}).
		Preload("Contracts.Lines", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence")
		})
}

// FindGroupByID loads a group with its contracts and lines
func (r *GormContractRepository) FindGroupByID(ctx context.Context, id uuid.UUID) (*contract.Group, error) {
	var model models.ContractGroupModel
	found, err := first(preloadContracts(dbFor(ctx, r.db)), &model, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindGroupsByIDs loads groups in the order of ids, skipping unknown ones
func (r *GormContractRepository) FindGroupsByIDs(ctx context.Context, ids []uuid.UUID) ([]*contract.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ContractGroupModel
	if err := preloadContracts(dbFor(ctx, r.db)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*contract.Group, len(rows))
	for i := range rows {
		byID[rows[i].ID] = rows[i].ToDomain()
	}
	groups := make([]*contract.Group, 0, len(rows))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		g, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		groups = append(groups, g)
	}
	return groups, nil
}

// ListGroupIDs lists every group ID in creation order
func (r *GormContractRepository) ListGroupIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbFor(ctx, r.db).
		Model(&models.ContractGroupModel{}).
		Order("created_at, id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindGroupsByBVRReference lists groups carrying the payment slip reference
func (r *GormContractRepository) FindGroupsByBVRReference(ctx context.Context, ref string) ([]contract.Group, error) {
	var rows []models.ContractGroupModel
	if err := dbFor(ctx, r.db).
		Where("bvr_reference = ?", ref).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	groups := make([]contract.Group, len(rows))
	for i := range rows {
		groups[i] = *rows[i].ToDomain()
	}
	return groups, nil
}

// FindForGift lists non-draft contracts numbered number that the partner pays
// or corresponds for
func (r *GormContractRepository) FindForGift(ctx context.Context, partnerID uuid.UUID, number int) ([]contract.Contract, error) {
	var rows []models.ContractModel
	if err := dbFor(ctx, r.db).
		Where("number = ? AND state <> ?", number, contract.StateDraft).
		Where("partner_id = ? OR correspondent_id = ?", partnerID, partnerID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	contracts := make([]contract.Contract, len(rows))
	for i := range rows {
		contracts[i] = *rows[i].ToDomain()
	}
	return contracts, nil
}

// SaveGroup creates or updates the group header
func (r *GormContractRepository) SaveGroup(ctx context.Context, g *contract.Group) error {
	return dbFor(ctx, r.db).
		Omit(clause.Associations).
		Save(models.ContractGroupModelFromDomain(g)).Error
}

// SaveContract creates or updates a contract and replaces its lines
func (r *GormContractRepository) SaveContract(ctx context.Context, c *contract.Contract) error {
	model := models.ContractModelFromDomain(c)
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", c.ID).Delete(&models.ContractLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	})
}

var _ contract.Repository = (*GormContractRepository)(nil)
