package materials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/pagination"
)

// Repository manages persistence for materials and their stock ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateMaterial(ctx context.Context, material *models.Material) error
	SaveMaterial(ctx context.Context, material *models.Material) error
	FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	FindMaterialForUpdate(ctx context.Context, id uuid.UUID) (*models.Material, error)
	ListMaterials(ctx context.Context, params pagination.Params) ([]models.Material, string, error)
	ListAllMaterials(ctx context.Context) ([]models.Material, error)
	ListBelowMinStock(ctx context.Context) ([]models.Material, error)
	AdjustStock(ctx context.Context, materialID uuid.UUID, delta decimal.Decimal) error

	CreateUsage(ctx context.Context, record *models.UsageRecord) error
	SaveUsage(ctx context.Context, record *models.UsageRecord) error
	FindUsage(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error)
	DeleteUsage(ctx context.Context, id uuid.UUID) error
	ListUsage(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.UsageRecord, error)
	SumUsageThrough(ctx context.Context, materialID uuid.UUID, cutoff time.Time) (decimal.Decimal, error)

	CreateIncoming(ctx context.Context, record *models.IncomingRecord) error
	ListIncoming(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.IncomingRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a materials repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateMaterial(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *repository) SaveMaterial(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Save(material).Error
}

func (r *repository) FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).
		Preload("Supplier").
		First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repository) FindMaterialForUpdate(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repository) ListMaterials(ctx context.Context, params pagination.Params) ([]models.Material, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Material{}).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Material
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (r *repository) ListAllMaterials(ctx context.Context) ([]models.Material, error) {
	var rows []models.Material
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListBelowMinStock(ctx context.Context) ([]models.Material, error) {
	var rows []models.Material
	if err := r.db.WithContext(ctx).
		Where("current_stock <= min_stock").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) AdjustStock(ctx context.Context, materialID uuid.UUID, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Material{}).
		Where("id = ?", materialID).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", delta)).Error
}

func (r *repository) CreateUsage(ctx context.Context, record *models.UsageRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) SaveUsage(ctx context.Context, record *models.UsageRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) FindUsage(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	var record models.UsageRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) DeleteUsage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.UsageRecord{}, "id = ?", id).Error
}

func (r *repository) ListUsage(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.UsageRecord, error) {
	query := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("usage_date DESC").
		Order("created_at DESC")
	if from != nil {
		query = query.Where("usage_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("usage_date <= ?", *to)
	}

	var rows []models.UsageRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumUsageThrough(ctx context.Context, materialID uuid.UUID, cutoff time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Select("SUM(quantity)").
		Where("material_id = ? AND usage_date <= ?", materialID, cutoff).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repository) CreateIncoming(ctx context.Context, record *models.IncomingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListIncoming(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.IncomingRecord, error) {
	query := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("arrival_date DESC").
		Order("created_at DESC")
	if from != nil {
		query = query.Where("arrival_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("arrival_date <= ?", *to)
	}

	var rows []models.IncomingRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
