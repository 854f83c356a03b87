package persistence

import (
	"context"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStatementRepository implements completion.StatementRepository using GORM
type GormStatementRepository struct {
	db *gorm.DB
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// Create inserts the statement with its lines
func (r *GormStatementRepository) Create(ctx context.Context, s *completion.Statement) error {
	model := models.StatementModelFromDomain(s)
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.CreateInBatches(&model.Lines, 200).Error
	})
}

// FindByID loads a statement with its lines in sequence order
func (r *GormStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*completion.Statement, error) {
	var model models.StatementModel
	query := dbFor(ctx, r.db).Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sequence")
	})
	found, err := first(query, &model, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateLine writes the set fields of the update onto one line
func (r *GormStatementRepository) UpdateLine(ctx context.Context, lineID uuid.UUID, update completion.FieldUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	values := map[string]any{}
	if update.PartnerID != nil {
		values["partner_id"] = *update.PartnerID
	}
	if update.AccountID != nil {
		values["account_id"] = *update.AccountID
	}
	if update.Name != nil {
		values["name"] = *update.Name
	}

	result := dbFor(ctx, r.db).
		Model(&models.StatementLineModel{}).
		Where("id = ?", lineID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Statement line not found")
	}
	return nil
}

// SetInvoicer records the invoicer collecting the statement's invoices
func (r *GormStatementRepository) SetInvoicer(ctx context.Context, statementID, invoicerID uuid.UUID) error {
	result := dbFor(ctx, r.db).
		Model(&models.StatementModel{}).
		Where("id = ?", statementID).
		Update("recurring_invoicer_id", invoicerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Statement not found")
	}
	return nil
}

// GormRuleRepository implements completion.RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

func (r *GormRuleRepository) query(ctx context.Context) *gorm.DB {
	return dbFor(ctx, r.db).Preload("Journals").Order("sequence, name")
}

// FindByJournal lists the rules configured for a journal
func (r *GormRuleRepository) FindByJournal(ctx context.Context, journalID uuid.UUID) ([]completion.CompletionRule, error) {
	linked := dbFor(ctx, r.db).
		Model(&models.CompletionRuleJournalModel{}).
		Select("rule_id").
		Where("journal_id = ?", journalID)

	var rows []models.CompletionRuleModel
	if err := r.query(ctx).Where("id IN (?)", linked).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRules(rows), nil
}

// FindAll lists every rule
func (r *GormRuleRepository) FindAll(ctx context.Context) ([]completion.CompletionRule, error) {
	var rows []models.CompletionRuleModel
	if err := r.query(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRules(rows), nil
}

// Save creates or updates a rule and replaces its journal links
func (r *GormRuleRepository) Save(ctx context.Context, rule *completion.CompletionRule) error {
	model := models.CompletionRuleModelFromDomain(rule)
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("rule_id = ?", rule.ID).Delete(&models.CompletionRuleJournalModel{}).Error; err != nil {
			return err
		}
		if len(model.Journals) == 0 {
			return nil
		}
		return tx.Create(&model.Journals).Error
	})
}

func toRules(rows []models.CompletionRuleModel) []completion.CompletionRule {
	rules := make([]completion.CompletionRule, len(rows))
	for i := range rows {
		rules[i] = rows[i].ToDomain()
	}
	return rules
}

// GormMoveLineRepository implements completion.MoveLineRepository using GORM
type GormMoveLineRepository struct {
	db *gorm.DB
}

// NewGormMoveLineRepository creates a new GormMoveLineRepository
func NewGormMoveLineRepository(db *gorm.DB) *GormMoveLineRepository {
	return &GormMoveLineRepository{db: db}
}

// FindByRefWithPartner lists move lines with the reference and a partner set,
// most recent first
func (r *GormMoveLineRepository) FindByRefWithPartner(ctx context.Context, ref string) ([]completion.MoveLine, error) {
	var rows []models.MoveLineModel
	if err := dbFor(ctx, r.db).
		Where("ref = ? AND partner_id IS NOT NULL", ref).
		Order("date DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]completion.MoveLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	return lines, nil
}

// Save creates a move line
func (r *GormMoveLineRepository) Save(ctx context.Context, ml *completion.MoveLine) error {
	if ml.ID == uuid.Nil {
		ml.ID = uuid.New()
	}
	return dbFor(ctx, r.db).Create(models.MoveLineModelFromDomain(ml)).Error
}

var (
	_ completion.StatementRepository = (*GormStatementRepository)(nil)
	_ completion.RuleRepository      = (*GormRuleRepository)(nil)
	_ completion.MoveLineRepository  = (*GormMoveLineRepository)(nil)
)
