package cron

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
	"github.com/rmoralesv/moldops-backend/pkg/outbox"
	"github.com/rmoralesv/moldops-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lowStockSource interface {
	ListBelowMinStock(ctx context.Context) ([]models.Material, error)
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type LowStockJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Materials lowStockSource
	Outbox    eventEmitter
}

// NewLowStockJob sweeps materials sitting at or below their floor and queues
// a low stock event for each. The ledger already fires on the crossing; the
// sweep catches stock that stayed low after the earlier alert was read.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Materials == nil {
		return nil, fmt.Errorf("materials source required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &lowStockJob{
		logg:      params.Logger,
		db:        params.DB,
		materials: params.Materials,
		outbox:    params.Outbox,
	}, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	db        txRunner
	materials lowStockSource
	outbox    eventEmitter
}

func (j *lowStockJob) Name() string { return "low-stock-sweep" }

func (j *lowStockJob) Run(ctx context.Context) error {
	rows, err := j.materials.ListBelowMinStock(ctx)
	if err != nil {
		return fmt.Errorf("list low stock materials: %w", err)
	}
	if len(rows) == 0 {
		j.logg.Info(ctx, "no materials below minimum stock")
		return nil
	}

	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, material := range rows {
			event := outbox.DomainEvent{
				EventType:     enums.EventMaterialLowStock,
				AggregateType: enums.AggregateMaterial,
				AggregateID:   material.ID,
				Version:       1,
				Data: payloads.MaterialLowStockEvent{
					MaterialID:   material.ID,
					MaterialName: material.Name,
					CurrentStock: material.CurrentStock,
					MinStock:     material.MinStock,
					Unit:         material.Unit,
				},
			}
			if err := j.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return fmt.Errorf("emit low stock event for %s: %w", material.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("low stock sweep: %w", err)
	}

	logCtx := j.logg.WithField(ctx, "materials_below_min", len(rows))
	j.logg.Info(logCtx, "low stock sweep complete")
	return nil
}
