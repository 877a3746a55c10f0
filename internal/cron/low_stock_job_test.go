package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
	"github.com/rmoralesv/moldops-backend/pkg/outbox"
)

type fakeMaterialsSource struct {
	rows []models.Material
	err  error
}

func (f *fakeMaterialsSource) ListBelowMinStock(ctx context.Context) ([]models.Material, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type lowStockTxRunner struct{}

func (lowStockTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newLowStockJob(t *testing.T, source *fakeMaterialsSource, emitter *fakeEmitter) Job {
	t.Helper()
	job, err := NewLowStockJob(LowStockJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		DB:        lowStockTxRunner{},
		Materials: source,
		Outbox:    emitter,
	})
	if err != nil {
		t.Fatalf("NewLowStockJob: %v", err)
	}
	return job
}

func TestLowStockJobEmitsPerMaterial(t *testing.T) {
	low := models.Material{
		ID:           uuid.New(),
		Name:         "PP copolymer",
		Unit:         "kg",
		CurrentStock: decimal.RequireFromString("4"),
		MinStock:     decimal.RequireFromString("10"),
	}
	empty := models.Material{
		ID:           uuid.New(),
		Name:         "ABS natural",
		Unit:         "kg",
		CurrentStock: decimal.RequireFromString("-2"),
		MinStock:     decimal.RequireFromString("5"),
	}
	source := &fakeMaterialsSource{rows: []models.Material{low, empty}}
	emitter := &fakeEmitter{}

	job := newLowStockJob(t, source, emitter)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}
	first := emitter.events[0]
	if first.EventType != enums.EventMaterialLowStock {
		t.Fatalf("unexpected event type %s", first.EventType)
	}
	if first.AggregateID != low.ID {
		t.Fatalf("expected aggregate %s, got %s", low.ID, first.AggregateID)
	}
}

func TestLowStockJobNoRows(t *testing.T) {
	emitter := &fakeEmitter{}
	job := newLowStockJob(t, &fakeMaterialsSource{}, emitter)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}
}

func TestLowStockJobPropagatesErrors(t *testing.T) {
	job := newLowStockJob(t, &fakeMaterialsSource{err: errors.New("db down")}, &fakeEmitter{})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	job = newLowStockJob(t,
		&fakeMaterialsSource{rows: []models.Material{{ID: uuid.New(), Name: "PP"}}},
		&fakeEmitter{err: errors.New("emit failed")},
	)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
