package materials

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/outbox"
	"github.com/rmoralesv/moldops-backend/pkg/outbox/payloads"
	"github.com/rmoralesv/moldops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns every write to Material.CurrentStock. All other packages treat
// the stock column as read-only.
type Service interface {
	CreateMaterial(ctx context.Context, input CreateMaterialInput) (*models.Material, error)
	UpdateMaterial(ctx context.Context, input UpdateMaterialInput) (*models.Material, error)
	GetMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	ListMaterials(ctx context.Context, params pagination.Params) ([]models.Material, string, error)

	RecordUsage(ctx context.Context, input RecordUsageInput) (*models.UsageRecord, error)
	GetUsage(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error)
	EditUsage(ctx context.Context, input EditUsageInput) (*models.UsageRecord, error)
	DeleteUsage(ctx context.Context, input DeleteUsageInput) error
	ListUsage(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.UsageRecord, error)

	RecordIncoming(ctx context.Context, input RecordIncomingInput) (*models.IncomingRecord, error)
	ListIncoming(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.IncomingRecord, error)

	StockAtDate(ctx context.Context, materialID uuid.UUID, cutoff time.Time) (decimal.Decimal, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateMaterialInput carries the master-record fields for a new material.
type CreateMaterialInput struct {
	Name       string
	Spec       *string
	Unit       string
	MinStock   decimal.Decimal
	SupplierID *uuid.UUID
}

// UpdateMaterialInput updates master-record fields. CurrentStock is absent on
// purpose; it only moves through the ledger operations.
type UpdateMaterialInput struct {
	MaterialID uuid.UUID
	Name       *string
	Spec       *string
	Unit       *string
	MinStock   *decimal.Decimal
	SupplierID *uuid.UUID
}

// RecordUsageInput captures one material draw.
type RecordUsageInput struct {
	MaterialID  uuid.UUID
	Quantity    decimal.Decimal
	UsageDate   time.Time
	WorkOrderNo *string
	Note        *string
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// EditUsageInput corrects an existing usage record. OldQuantity is supplied by
// the caller; the compensating delta is OldQuantity minus Quantity. A stale
// OldQuantity drifts stock silently, so controllers read it from the stored row.
type EditUsageInput struct {
	UsageID     uuid.UUID
	OldQuantity decimal.Decimal
	Quantity    decimal.Decimal
	UsageDate   *time.Time
	WorkOrderNo *string
	Note        *string
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// DeleteUsageInput removes a usage record and restores its quantity.
type DeleteUsageInput struct {
	UsageID     uuid.UUID
	MaterialID  uuid.UUID
	Quantity    decimal.Decimal
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// RecordIncomingInput captures one raw-material delivery.
type RecordIncomingInput struct {
	MaterialID  uuid.UUID
	Quantity    decimal.Decimal
	ArrivalDate time.Time
	SupplierID  *uuid.UUID
	BatchNo     *string
	Note        *string
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// NewService wires a materials service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("materials repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: ob}, nil
}

func (s *service) CreateMaterial(ctx context.Context, input CreateMaterialInput) (*models.Material, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material name required")
	}
	if input.MinStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock cannot be negative")
	}
	unit := input.Unit
	if unit == "" {
		unit = "kg"
	}

	material := &models.Material{
		Name:       input.Name,
		Spec:       input.Spec,
		Unit:       unit,
		MinStock:   input.MinStock,
		SupplierID: input.SupplierID,
	}
	if err := s.repo.CreateMaterial(ctx, material); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material")
	}
	return material, nil
}

func (s *service) UpdateMaterial(ctx context.Context, input UpdateMaterialInput) (*models.Material, error) {
	if input.MaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}

	material, err := s.repo.FindMaterial(ctx, input.MaterialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "material name cannot be empty")
		}
		material.Name = *input.Name
	}
	if input.Spec != nil {
		material.Spec = input.Spec
	}
	if input.Unit != nil && *input.Unit != "" {
		material.Unit = *input.Unit
	}
	if input.MinStock != nil {
		if input.MinStock.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock cannot be negative")
		}
		material.MinStock = *input.MinStock
	}
	if input.SupplierID != nil {
		material.SupplierID = input.SupplierID
	}

	if err := s.repo.SaveMaterial(ctx, material); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material")
	}
	return material, nil
}

func (s *service) GetMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	material, err := s.repo.FindMaterial(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}
	return material, nil
}

func (s *service) ListMaterials(ctx context.Context, params pagination.Params) ([]models.Material, string, error) {
	rows, next, err := s.repo.ListMaterials(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}
	return rows, next, nil
}

func (s *service) RecordUsage(ctx context.Context, input RecordUsageInput) (*models.UsageRecord, error) {
	if input.MaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UsageDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage date required")
	}

	record := &models.UsageRecord{
		MaterialID:  input.MaterialID,
		Quantity:    input.Quantity,
		UsageDate:   input.UsageDate,
		WorkOrderNo: input.WorkOrderNo,
		Note:        input.Note,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		material, err := repo.FindMaterialForUpdate(ctx, input.MaterialID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
		}

		if err := repo.CreateUsage(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create usage record")
		}
		if err := repo.AdjustStock(ctx, material.ID, input.Quantity.Neg()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}

		// stock may go negative; the floor only drives notification, not rejection
		newStock := material.CurrentStock.Sub(input.Quantity)
		if newStock.LessThanOrEqual(material.MinStock) && material.CurrentStock.GreaterThan(material.MinStock) {
			return s.emitLowStock(ctx, tx, material, newStock, input.ActorUserID, input.ActorRole)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) GetUsage(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage id required")
	}
	record, err := s.repo.FindUsage(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "usage record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage record")
	}
	return record, nil
}

func (s *service) EditUsage(ctx context.Context, input EditUsageInput) (*models.UsageRecord, error) {
	if input.UsageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage id required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.OldQuantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "old quantity must be positive")
	}

	var updated *models.UsageRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindUsage(ctx, input.UsageID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "usage record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage record")
		}

		record.Quantity = input.Quantity
		if input.UsageDate != nil {
			record.UsageDate = *input.UsageDate
		}
		if input.WorkOrderNo != nil {
			record.WorkOrderNo = input.WorkOrderNo
		}
		if input.Note != nil {
			record.Note = input.Note
		}
		if err := repo.SaveUsage(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update usage record")
		}

		delta := input.OldQuantity.Sub(input.Quantity)
		if !delta.IsZero() {
			if err := repo.AdjustStock(ctx, record.MaterialID, delta); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply compensating delta")
			}
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeleteUsage(ctx context.Context, input DeleteUsageInput) error {
	if input.UsageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage id required")
	}
	if input.MaterialID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if !input.Quantity.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindUsage(ctx, input.UsageID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "usage record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage record")
		}
		if record.MaterialID != input.MaterialID {
			return pkgerrors.New(pkgerrors.CodeConflict, "usage record does not belong to material")
		}

		if err := repo.AdjustStock(ctx, input.MaterialID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
		if err := repo.DeleteUsage(ctx, input.UsageID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete usage record")
		}
		return nil
	})
}

func (s *service) ListUsage(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.UsageRecord, error) {
	if materialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	rows, err := s.repo.ListUsage(ctx, materialID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list usage records")
	}
	return rows, nil
}

func (s *service) RecordIncoming(ctx context.Context, input RecordIncomingInput) (*models.IncomingRecord, error) {
	if input.MaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.ArrivalDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "arrival date required")
	}

	record := &models.IncomingRecord{
		MaterialID:  input.MaterialID,
		Quantity:    input.Quantity,
		ArrivalDate: input.ArrivalDate,
		SupplierID:  input.SupplierID,
		BatchNo:     input.BatchNo,
		Note:        input.Note,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindMaterialForUpdate(ctx, input.MaterialID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
		}
		if err := repo.CreateIncoming(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create incoming record")
		}
		if err := repo.AdjustStock(ctx, input.MaterialID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) ListIncoming(ctx context.Context, materialID uuid.UUID, from, to *time.Time) ([]models.IncomingRecord, error) {
	if materialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	rows, err := s.repo.ListIncoming(ctx, materialID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list incoming records")
	}
	return rows, nil
}

// StockAtDate reconstructs the stock level as of the cutoff by adding back
// every usage dated at or before it. Incoming deliveries between the cutoff
// and now are not subtracted, so the value overstates history whenever stock
// arrived since. Treat it as indicative, not authoritative.
func (s *service) StockAtDate(ctx context.Context, materialID uuid.UUID, cutoff time.Time) (decimal.Decimal, error) {
	if materialID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if cutoff.IsZero() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cutoff date required")
	}

	material, err := s.repo.FindMaterial(ctx, materialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}

	used, err := s.repo.SumUsageThrough(ctx, materialID, cutoff)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum usage records")
	}
	return material.CurrentStock.Add(used), nil
}

func (s *service) emitLowStock(ctx context.Context, tx *gorm.DB, material *models.Material, newStock decimal.Decimal, actorUserID uuid.UUID, actorRole enums.UserRole) error {
	var actor *outbox.ActorRef
	if actorUserID != uuid.Nil {
		actor = &outbox.ActorRef{UserID: actorUserID, Role: actorRole.String()}
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventMaterialLowStock,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   material.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.MaterialLowStockEvent{
			MaterialID:   material.ID,
			MaterialName: material.Name,
			CurrentStock: newStock,
			MinStock:     material.MinStock,
			Unit:         material.Unit,
		},
	}
	return s.outbox.EmitIfNotExists(ctx, tx, event)
}
