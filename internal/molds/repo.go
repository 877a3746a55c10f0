package molds

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	"github.com/rmoralesv/moldops-backend/pkg/pagination"
)

// Repository manages persistence for molds and their movement history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateMold(ctx context.Context, mold *models.Mold) error
	SaveMold(ctx context.Context, mold *models.Mold) error
	FindMold(ctx context.Context, id uuid.UUID) (*models.Mold, error)
	FindMoldForUpdate(ctx context.Context, id uuid.UUID) (*models.Mold, error)
	ListMolds(ctx context.Context, params pagination.Params) ([]models.Mold, string, error)

	CreateMovement(ctx context.Context, movement *models.MoldMovement) error
	SaveMovement(ctx context.Context, movement *models.MoldMovement) error
	FindMovement(ctx context.Context, id uuid.UUID) (*models.MoldMovement, error)
	FindActiveMovement(ctx context.Context, moldID uuid.UUID) (*models.MoldMovement, error)
	ListMovements(ctx context.Context, moldID uuid.UUID) ([]models.MoldMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a molds repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateMold(ctx context.Context, mold *models.Mold) error {
	return r.db.WithContext(ctx).Create(mold).Error
}

func (r *repository) SaveMold(ctx context.Context, mold *models.Mold) error {
	return r.db.WithContext(ctx).Save(mold).Error
}

func (r *repository) FindMold(ctx context.Context, id uuid.UUID) (*models.Mold, error) {
	var mold models.Mold
	if err := r.db.WithContext(ctx).First(&mold, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mold, nil
}

func (r *repository) FindMoldForUpdate(ctx context.Context, id uuid.UUID) (*models.Mold, error) {
	var mold models.Mold
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&mold, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mold, nil
}

func (r *repository) ListMolds(ctx context.Context, params pagination.Params) ([]models.Mold, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Mold{}).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Mold
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

func (r *repository) CreateMovement(ctx context.Context, movement *models.MoldMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) SaveMovement(ctx context.Context, movement *models.MoldMovement) error {
	return r.db.WithContext(ctx).Save(movement).Error
}

func (r *repository) FindMovement(ctx context.Context, id uuid.UUID) (*models.MoldMovement, error) {
	var movement models.MoldMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) FindActiveMovement(ctx context.Context, moldID uuid.UUID) (*models.MoldMovement, error) {
	var movement models.MoldMovement
	err := r.db.WithContext(ctx).
		Where("mold_id = ? AND status = ?", moldID, enums.MovementStatusCheckedOut).
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) ListMovements(ctx context.Context, moldID uuid.UUID) ([]models.MoldMovement, error) {
	var rows []models.MoldMovement
	if err := r.db.WithContext(ctx).
		Where("mold_id = ?", moldID).
		Order("outgoing_date DESC").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
