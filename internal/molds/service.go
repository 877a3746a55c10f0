package molds

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
}

// Service drives the mold checkout/return lifecycle.
type Service interface {
	CreateMold(ctx context.Context, input CreateMoldInput) (*models.Mold, error)
	GetMold(ctx context.Context, id uuid.UUID) (*models.Mold, error)
	ListMolds(ctx context.Context, params pagination.Params) ([]models.Mold, string, error)

	Checkout(ctx context.Context, input CheckoutInput) (*models.MoldMovement, error)
	ReturnFromCheckout(ctx context.Context, input ReturnInput) (*models.MoldMovement, error)
	AttachDocument(ctx context.Context, movementID uuid.UUID, documentURL string) (*models.MoldMovement, error)
	ListMovements(ctx context.Context, moldID uuid.UUID) ([]models.MoldMovement, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateMoldInput carries the master-record fields for a new mold.
type CreateMoldInput struct {
	Code        string
	Name        string
	CavityCount int
	Location    *string
}

// CheckoutInput sends a mold out of the plant.
type CheckoutInput struct {
	MoldID             uuid.UUID
	Destination        string
	Reason             *string
	OutgoingDate       time.Time
	ExpectedReturnDate *time.Time
	EstimatedCost      *decimal.Decimal
	ActorUserID        uuid.UUID
	ActorRole          enums.UserRole
}

// ReturnInput closes a checkout. ResultingStatus is decided by the caller
// based on the repair outcome.
type ReturnInput struct {
	MovementID      uuid.UUID
	IncomingDate    time.Time
	ActualCost      *decimal.Decimal
	RepairResult    *string
	ResultingStatus enums.MoldStatus
	ActorUserID     uuid.UUID
	ActorRole       enums.UserRole
}

// NewService wires a molds service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("molds repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: ob}, nil
}

func (s *service) CreateMold(ctx context.Context, input CreateMoldInput) (*models.Mold, error) {
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mold code required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mold name required")
	}
	cavities := input.CavityCount
	if cavities <= 0 {
		cavities = 1
	}

	mold := &models.Mold{
		Code:        input.Code,
		Name:        input.Name,
		Status:      enums.MoldStatusAvailable,
		CavityCount: cavities,
		Location:    input.Location,
	}
	if err := s.repo.CreateMold(ctx, mold); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create mold")
	}
	return mold, nil
}

func (s *service) GetMold(ctx context.Context, id uuid.UUID) (*models.Mold, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mold id required")
	}
	mold, err := s.repo.FindMold(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "mold not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mold")
	}
	return mold, nil
}

func (s *service) ListMolds(ctx context.Context, params pagination.Params) ([]models.Mold, string, error) {
	rows, next, err := s.repo.ListMolds(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list molds")
	}
	return rows, next, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.MoldMovement, error) {
	if input.MoldID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mold id required")
	}
	if input.Destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination required")
	}
	if input.OutgoingDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outgoing date required")
	}

	movement := &models.MoldMovement{
		MoldID:             input.MoldID,
		Status:             enums.MovementStatusCheckedOut,
		Destination:        input.Destination,
		Reason:             input.Reason,
		OutgoingDate:       input.OutgoingDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
		EstimatedCost:      input.EstimatedCost,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		mold, err := repo.FindMoldForUpdate(ctx, input.MoldID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "mold not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mold")
		}
		if mold.Status == enums.MoldStatusScrapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "mold is scrapped")
		}

		if _, err := repo.FindActiveMovement(ctx, input.MoldID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "mold is already checked out")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active movement")
		}

		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create movement")
		}

		mold.Status = enums.MoldStatusCheckedOut
		if err := repo.SaveMold(ctx, mold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update mold status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) ReturnFromCheckout(ctx context.Context, input ReturnInput) (*models.MoldMovement, error) {
	if input.MovementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}
	if input.IncomingDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incoming date required")
	}
	if !input.ResultingStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid mold status %q", input.ResultingStatus))
	}
	if input.ResultingStatus == enums.MoldStatusCheckedOut {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "returned mold cannot stay checked out")
	}

	var updated *models.MoldMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		movement, err := repo.FindMovement(ctx, input.MovementID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
		}
		if movement.Status != enums.MovementStatusCheckedOut {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "movement already returned")
		}

		mold, err := repo.FindMoldForUpdate(ctx, movement.MoldID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "mold not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mold")
		}

		incoming := input.IncomingDate
		movement.Status = enums.MovementStatusReturned
		movement.IncomingDate = &incoming
		movement.ActualCost = input.ActualCost
		movement.RepairResult = input.RepairResult
		if err := repo.SaveMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update movement")
		}

		mold.Status = input.ResultingStatus
		mold.LastCheckDate = &incoming
		if err := repo.SaveMold(ctx, mold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update mold status")
		}

		var actor *outbox.ActorRef
		if input.ActorUserID != uuid.Nil {
			actor = &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()}
		}
		repairResult := ""
		if input.RepairResult != nil {
			repairResult = *input.RepairResult
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventMoldReturned,
			AggregateType: enums.AggregateMold,
			AggregateID:   mold.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.MoldReturnedEvent{
				MoldID:       mold.ID,
				MovementID:   movement.ID,
				MoldCode:     mold.Code,
				IncomingDate: incoming,
				ActualCost:   input.ActualCost,
				RepairResult: repairResult,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit mold returned event")
		}

		updated = movement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) AttachDocument(ctx context.Context, movementID uuid.UUID, documentURL string) (*models.MoldMovement, error) {
	if movementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}
	if documentURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document url required")
	}

	movement, err := s.repo.FindMovement(ctx, movementID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
	}

	movement.DocumentURL = &documentURL
	if err := s.repo.SaveMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach document")
	}
	return movement, nil
}

func (s *service) ListMovements(ctx context.Context, moldID uuid.UUID) ([]models.MoldMovement, error) {
	if moldID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mold id required")
	}
	rows, err := s.repo.ListMovements(ctx, moldID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return rows, nil
}
