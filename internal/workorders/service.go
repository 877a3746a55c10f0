package workorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// Service drives the work-order lifecycle and keeps equipment occupancy in
// sync with it. Equipment.CurrentWorkOrderID points at an order exactly while
// that order is running.
type Service interface {
	CreateWorkOrder(ctx context.Context, input CreateWorkOrderInput) (*models.WorkOrder, error)
	GetWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	ListWorkOrders(ctx context.Context, status *enums.WorkOrderStatus, params pagination.Params) ([]models.WorkOrder, string, error)

	Start(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.WorkOrder, error)
	RecordProduction(ctx context.Context, input RecordProductionInput) (*models.WorkOrder, error)
	Complete(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.WorkOrder, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.WorkOrder, error)
	SetProducedQuantity(ctx context.Context, orderID uuid.UUID, quantity int, actor Actor) (*models.WorkOrder, error)

	CreateEquipment(ctx context.Context, input CreateEquipmentInput) (*models.Equipment, error)
	ListEquipment(ctx context.Context) ([]models.Equipment, error)

	ListProductionRecords(ctx context.Context, workOrderID uuid.UUID) ([]models.ProductionRecord, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// Actor identifies who invoked an operation for event attribution.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateWorkOrderInput carries the fields for a new production run.
type CreateWorkOrderInput struct {
	OrderNo          string
	ProductID        uuid.UUID
	EquipmentID      *uuid.UUID
	MoldID           *uuid.UUID
	TargetQty        int
	PlannedStartDate *time.Time
}

// RecordProductionInput reports a production increment on a running order.
type RecordProductionInput struct {
	OrderID      uuid.UUID
	Delta        int
	ReportDate   time.Time
	OperatorName *string
	Actor        Actor
}

// CreateEquipmentInput registers an injection machine.
type CreateEquipmentInput struct {
	Code string
	Name string
}

// NewService wires a work order service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("workorders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: ob}, nil
}

func (s *service) CreateWorkOrder(ctx context.Context, input CreateWorkOrderInput) (*models.WorkOrder, error) {
	if input.OrderNo == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.TargetQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target quantity must be positive")
	}

	order := &models.WorkOrder{
		OrderNo:          input.OrderNo,
		ProductID:        input.ProductID,
		EquipmentID:      input.EquipmentID,
		MoldID:           input.MoldID,
		Status:           enums.WorkOrderStatusPending,
		TargetQty:        input.TargetQty,
		PlannedStartDate: input.PlannedStartDate,
	}
	if err := s.repo.CreateWorkOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work order")
	}
	return order, nil
}

func (s *service) GetWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	order, err := s.repo.FindWorkOrder(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
	}
	return order, nil
}

func (s *service) ListWorkOrders(ctx context.Context, status *enums.WorkOrderStatus, params pagination.Params) ([]models.WorkOrder, string, error) {
	if status != nil && !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid work order status %q", *status))
	}
	rows, next, err := s.repo.ListWorkOrders(ctx, status, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work orders")
	}
	return rows, next, nil
}

func (s *service) Start(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.WorkOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}

	var started *models.WorkOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindWorkOrderForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
		}
		if order.Status != enums.WorkOrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "work order can only start from pending")
		}

		now := time.Now()
		order.Status = enums.WorkOrderStatusRunning
		order.StartTime = &now

		if order.EquipmentID != nil {
			equipment, err := repo.FindEquipmentForUpdate(ctx, *order.EquipmentID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "equipment not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load equipment")
			}
			if equipment.CurrentWorkOrderID != nil {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "equipment is occupied by another work order")
			}
			equipment.Status = enums.EquipmentStatusRunning
			equipment.CurrentWorkOrderID = &order.ID
			if err := repo.SaveEquipment(ctx, equipment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy equipment")
			}
		}

		if err := repo.SaveWorkOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start work order")
		}
		started = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

func (s *service) RecordProduction(ctx context.Context, input RecordProductionInput) (*models.WorkOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	if input.Delta <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "production delta must be positive")
	}
	if input.ReportDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report date required")
	}

	var updated *models.WorkOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindWorkOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
		}
		if order.Status != enums.WorkOrderStatusRunning {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "production can only be reported on a running order")
		}

		record := &models.ProductionRecord{
			WorkOrderID:  order.ID,
			ReportDate:   input.ReportDate,
			Quantity:     input.Delta,
			OperatorName: input.OperatorName,
		}
		if err := repo.CreateProductionRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create production record")
		}

		before := order.ProducedQty
		order.ProducedQty += input.Delta
		if err := repo.SaveWorkOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update produced quantity")
		}

		// reaching the target notifies but never transitions the order
		if before < order.TargetQty && order.ProducedQty >= order.TargetQty {
			event := outbox.DomainEvent{
				EventType:     enums.EventProductionTargetReached,
				AggregateType: enums.AggregateWorkOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         actorRef(input.Actor),
				Data: payloads.ProductionTargetReachedEvent{
					WorkOrderID: order.ID,
					OrderNo:     order.OrderNo,
					TargetQty:   order.TargetQty,
					ProducedQty: order.ProducedQty,
					ReachedAt:   time.Now(),
				},
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit target reached event")
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Complete(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.WorkOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	return s.finish(ctx, orderID, enums.WorkOrderStatusCompleted)
}

// Cancel releases the linked equipment as well. Leaving the machine occupied
// by a dead order would block every later Start on it.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.WorkOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	return s.finish(ctx, orderID, enums.WorkOrderStatusCancelled)
}

func (s *service) finish(ctx context.Context, orderID uuid.UUID, target enums.WorkOrderStatus) (*models.WorkOrder, error) {
	var finished *models.WorkOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindWorkOrderForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
		}

		switch target {
		case enums.WorkOrderStatusCompleted:
			if order.Status != enums.WorkOrderStatusRunning {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "only a running order can be completed")
			}
		case enums.WorkOrderStatusCancelled:
			if order.Status.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "work order already finished")
			}
		}

		wasRunning := order.Status == enums.WorkOrderStatusRunning
		now := time.Now()
		order.Status = target
		order.EndTime = &now

		if wasRunning && order.EquipmentID != nil {
			equipment, err := repo.FindEquipmentForUpdate(ctx, *order.EquipmentID)
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load equipment")
				}
			} else if equipment.CurrentWorkOrderID != nil && *equipment.CurrentWorkOrderID == order.ID {
				equipment.Status = enums.EquipmentStatusIdle
				equipment.CurrentWorkOrderID = nil
				if err := repo.SaveEquipment(ctx, equipment); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release equipment")
				}
			}
		}

		if err := repo.SaveWorkOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finish work order")
		}
		finished = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finished, nil
}

// SetProducedQuantity overwrites the counter directly, bypassing the delta
// path. No production record is appended, so consumption math ignores the
// correction.
func (s *service) SetProducedQuantity(ctx context.Context, orderID uuid.UUID, quantity int, actor Actor) (*models.WorkOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produced quantity cannot be negative")
	}

	var updated *models.WorkOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindWorkOrderForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
		}

		order.ProducedQty = quantity
		if err := repo.SaveWorkOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set produced quantity")
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) CreateEquipment(ctx context.Context, input CreateEquipmentInput) (*models.Equipment, error) {
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment code required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment name required")
	}

	equipment := &models.Equipment{
		Code:   input.Code,
		Name:   input.Name,
		Status: enums.EquipmentStatusIdle,
	}
	if err := s.repo.CreateEquipment(ctx, equipment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create equipment")
	}
	return equipment, nil
}

func (s *service) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	rows, err := s.repo.ListEquipment(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list equipment")
	}
	return rows, nil
}

func (s *service) ListProductionRecords(ctx context.Context, workOrderID uuid.UUID) ([]models.ProductionRecord, error) {
	if workOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	rows, err := s.repo.ListProductionRecords(ctx, workOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list production records")
	}
	return rows, nil
}

func actorRef(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
}
