package shipments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
)

// Repository manages persistence for finished-goods inventory transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.InventoryTransaction) error
	List(ctx context.Context, filter ListFilter) ([]models.InventoryTransaction, error)
	ListThrough(ctx context.Context, cutoff time.Time) ([]models.InventoryTransaction, error)
}

// ListFilter narrows transaction listings.
type ListFilter struct {
	Type *enums.InventoryTransactionType
	From *time.Time
	To   *time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a shipments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, row *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.InventoryTransaction, error) {
	query := r.db.WithContext(ctx).
		Order("transaction_date DESC").
		Order("created_at DESC")
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", *filter.To)
	}

	var rows []models.InventoryTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListThrough(ctx context.Context, cutoff time.Time) ([]models.InventoryTransaction, error) {
	var rows []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("transaction_date <= ?", cutoff).
		Order("transaction_date ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
