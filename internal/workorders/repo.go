package workorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	"github.com/rmoralesv/moldops-backend/pkg/pagination"
)

// Repository manages persistence for work orders, equipment and production
// records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateWorkOrder(ctx context.Context, order *models.WorkOrder) error
	SaveWorkOrder(ctx context.Context, order *models.WorkOrder) error
	FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	FindWorkOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	ListWorkOrders(ctx context.Context, status *enums.WorkOrderStatus, params pagination.Params) ([]models.WorkOrder, string, error)

	CreateEquipment(ctx context.Context, equipment *models.Equipment) error
	SaveEquipment(ctx context.Context, equipment *models.Equipment) error
	FindEquipment(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	FindEquipmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	ListEquipment(ctx context.Context) ([]models.Equipment, error)

	CreateProductionRecord(ctx context.Context, record *models.ProductionRecord) error
	ListProductionRecords(ctx context.Context, workOrderID uuid.UUID) ([]models.ProductionRecord, error)
	ListProductionRecordsByDate(ctx context.Context, date time.Time) ([]models.ProductionRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a work order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateWorkOrder(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) SaveWorkOrder(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *repository) FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindWorkOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListWorkOrders(ctx context.Context, status *enums.WorkOrderStatus, params pagination.Params) ([]models.WorkOrder, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit + 1)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WorkOrder
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

func (r *repository) CreateEquipment(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Create(equipment).Error
}

func (r *repository) SaveEquipment(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Save(equipment).Error
}

func (r *repository) FindEquipment(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	var equipment models.Equipment
	if err := r.db.WithContext(ctx).First(&equipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *repository) FindEquipmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	var equipment models.Equipment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&equipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *repository) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	var rows []models.Equipment
	if err := r.db.WithContext(ctx).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateProductionRecord(ctx context.Context, record *models.ProductionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListProductionRecords(ctx context.Context, workOrderID uuid.UUID) ([]models.ProductionRecord, error) {
	var rows []models.ProductionRecord
	if err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("report_date ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListProductionRecordsByDate(ctx context.Context, date time.Time) ([]models.ProductionRecord, error) {
	var rows []models.ProductionRecord
	if err := r.db.WithContext(ctx).
		Preload("WorkOrder").
		Where("report_date = ?", date).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
