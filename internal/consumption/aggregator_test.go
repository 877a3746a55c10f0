package consumption

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
)

func material(name, stock string) models.Material {
	return models.Material{
		ID:           uuid.New(),
		Name:         name,
		Unit:         "kg",
		CurrentStock: decimal.RequireFromString(stock),
	}
}

func product(name string, materialID uuid.UUID, unitWeight, runnerWeight string) models.Product {
	return models.Product{
		ID:                uuid.New(),
		Code:              name,
		Name:              name,
		MaterialID:        &materialID,
		UnitWeightGrams:   decimal.RequireFromString(unitWeight),
		RunnerWeightGrams: decimal.RequireFromString(runnerWeight),
	}
}

func record(productID uuid.UUID, qty int) models.ProductionRecord {
	return models.ProductionRecord{
		ID:          uuid.New(),
		WorkOrderID: uuid.New(),
		WorkOrder:   &models.WorkOrder{ProductID: productID},
		ReportDate:  time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Quantity:    qty,
	}
}

func index[T interface{ models.Product | models.Material }](rows []T, id func(T) uuid.UUID) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(rows))
	for _, row := range rows {
		out[id(row)] = row
	}
	return out
}

func TestAggregateShotWeightMath(t *testing.T) {
	pp := material("PP copolymer", "100")
	cap := product("CAP-40", pp.ID, "50", "10")

	got := Aggregate(
		[]models.ProductionRecord{record(cap.ID, 100)},
		index([]models.Product{cap}, func(p models.Product) uuid.UUID { return p.ID }),
		index([]models.Material{pp}, func(m models.Material) uuid.UUID { return m.ID }),
	)

	if len(got) != 1 {
		t.Fatalf("expected one material row, got %d", len(got))
	}
	// (50g + 10g) x 100 units = 6kg
	if !got[0].ConsumedKg.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("expected 6 kg, got %s", got[0].ConsumedKg)
	}
	if got[0].Units != 100 {
		t.Fatalf("expected 100 units, got %d", got[0].Units)
	}
}

func TestAggregateMergesProductsPerMaterial(t *testing.T) {
	pp := material("PP copolymer", "1000")
	cap := product("CAP-40", pp.ID, "50", "10")
	lid := product("LID-70", pp.ID, "30", "6")

	got := Aggregate(
		[]models.ProductionRecord{record(cap.ID, 100), record(lid.ID, 50), record(cap.ID, 10)},
		index([]models.Product{cap, lid}, func(p models.Product) uuid.UUID { return p.ID }),
		index([]models.Material{pp}, func(m models.Material) uuid.UUID { return m.ID }),
	)

	if len(got) != 1 {
		t.Fatalf("expected one material row, got %d", len(got))
	}
	// 6 + 1.8 + 0.6
	if !got[0].ConsumedKg.Equal(decimal.RequireFromString("8.4")) {
		t.Fatalf("expected 8.4 kg, got %s", got[0].ConsumedKg)
	}
	if got[0].Units != 160 {
		t.Fatalf("expected 160 units, got %d", got[0].Units)
	}
	if len(got[0].ProductNames) != 2 {
		t.Fatalf("expected 2 distinct product names, got %v", got[0].ProductNames)
	}
}

func TestAggregateSkipsUnknownProductsAndMaterials(t *testing.T) {
	pp := material("PP copolymer", "100")
	cap := product("CAP-40", pp.ID, "50", "10")
	orphanMaterial := uuid.New()
	orphan := product("ORPHAN", orphanMaterial, "10", "2")
	loose := models.Product{ID: uuid.New(), Name: "no material", UnitWeightGrams: decimal.NewFromInt(5)}

	got := Aggregate(
		[]models.ProductionRecord{
			record(cap.ID, 10),
			record(orphan.ID, 10),
			record(loose.ID, 10),
			record(uuid.New(), 10),
		},
		index([]models.Product{cap, orphan, loose}, func(p models.Product) uuid.UUID { return p.ID }),
		index([]models.Material{pp}, func(m models.Material) uuid.UUID { return m.ID }),
	)

	if len(got) != 1 {
		t.Fatalf("only the resolvable record should aggregate, got %d rows", len(got))
	}
	if got[0].MaterialID != pp.ID {
		t.Fatal("unexpected material row")
	}
}

func TestSeverityThresholds(t *testing.T) {
	cases := []struct {
		name     string
		stock    string
		qty      int
		expected Severity
	}{
		{"safe under 20 percent", "100", 100, SeveritySafe},         // 6kg of 100kg
		{"watch at 20 percent", "30", 100, SeverityWatch},           // 6kg of 30kg
		{"critical at 50 percent", "12", 100, SeverityCritical},     // 6kg of 12kg
		{"critical on empty stock", "0", 100, SeverityCritical},     // no stock left
		{"critical on negative stock", "-5", 100, SeverityCritical}, // ledger went negative
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := material("PP copolymer", tc.stock)
			p := product("CAP-40", m.ID, "50", "10")
			got := Aggregate(
				[]models.ProductionRecord{record(p.ID, tc.qty)},
				index([]models.Product{p}, func(x models.Product) uuid.UUID { return x.ID }),
				index([]models.Material{m}, func(x models.Material) uuid.UUID { return x.ID }),
			)
			if len(got) != 1 {
				t.Fatalf("expected one row, got %d", len(got))
			}
			if got[0].Severity != tc.expected {
				t.Fatalf("expected severity %s, got %s", tc.expected, got[0].Severity)
			}
		})
	}
}

type stubProduction struct{ rows []models.ProductionRecord }

func (s stubProduction) ListProductionRecordsByDate(ctx context.Context, date time.Time) ([]models.ProductionRecord, error) {
	var out []models.ProductionRecord
	for _, row := range s.rows {
		if row.ReportDate.Equal(date) {
			out = append(out, row)
		}
	}
	return out, nil
}

type stubProducts struct{ rows []models.Product }

func (s stubProducts) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.rows, nil
}

type stubMaterials struct{ rows []models.Material }

func (s stubMaterials) ListAllMaterials(ctx context.Context) ([]models.Material, error) {
	return s.rows, nil
}

func TestServiceForDate(t *testing.T) {
	pp := material("PP copolymer", "100")
	cap := product("CAP-40", pp.ID, "50", "10")

	svc, err := NewService(
		stubProduction{rows: []models.ProductionRecord{record(cap.ID, 100)}},
		stubProducts{rows: []models.Product{cap}},
		stubMaterials{rows: []models.Material{pp}},
	)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	got, err := svc.ForDate(context.Background(), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ForDate error: %v", err)
	}
	if len(got) != 1 || !got[0].ConsumedKg.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("unexpected projection %+v", got)
	}

	empty, err := svc.ForDate(context.Background(), time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ForDate error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty projection for a quiet day, got %d rows", len(empty))
	}

	if _, err := svc.ForDate(context.Background(), time.Time{}); err == nil {
		t.Fatal("expected validation error for zero date")
	}
}
