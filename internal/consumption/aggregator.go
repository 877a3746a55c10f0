package consumption

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
)

// Severity grades a day's draw against the material's remaining stock.
type Severity string

const (
	SeveritySafe     Severity = "safe"
	SeverityWatch    Severity = "watch"
	SeverityCritical Severity = "critical"
)

var (
	watchRatio    = decimal.RequireFromString("0.2")
	criticalRatio = decimal.RequireFromString("0.5")
	grams         = decimal.NewFromInt(1000)
)

// MaterialConsumption is one material's aggregated daily draw.
type MaterialConsumption struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	ConsumedKg   decimal.Decimal `json:"consumed_kg"`
	Units        int             `json:"units"`
	ProductNames []string        `json:"product_names"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Severity     Severity        `json:"severity"`
}

// Aggregate folds one day's production records into per-material consumption.
// Each unit produced consumes the product weight plus the runner weight in
// grams. Records whose product or material is unknown are skipped. The result
// is a projection only; nothing is written back.
func Aggregate(records []models.ProductionRecord, products map[uuid.UUID]models.Product, materials map[uuid.UUID]models.Material) []MaterialConsumption {
	type bucket struct {
		consumption  MaterialConsumption
		productNames map[string]struct{}
	}
	buckets := map[uuid.UUID]*bucket{}

	for _, record := range records {
		if record.Quantity <= 0 || record.WorkOrder == nil {
			continue
		}
		product, ok := products[record.WorkOrder.ProductID]
		if !ok || product.MaterialID == nil {
			continue
		}
		material, ok := materials[*product.MaterialID]
		if !ok {
			continue
		}

		shotWeight := product.UnitWeightGrams.Add(product.RunnerWeightGrams)
		consumedKg := shotWeight.Mul(decimal.NewFromInt(int64(record.Quantity))).Div(grams)

		b, seen := buckets[material.ID]
		if !seen {
			b = &bucket{
				consumption: MaterialConsumption{
					MaterialID:   material.ID,
					MaterialName: material.Name,
					Unit:         material.Unit,
					ConsumedKg:   decimal.Zero,
					CurrentStock: material.CurrentStock,
				},
				productNames: map[string]struct{}{},
			}
			buckets[material.ID] = b
		}
		b.consumption.ConsumedKg = b.consumption.ConsumedKg.Add(consumedKg)
		b.consumption.Units += record.Quantity
		b.productNames[product.Name] = struct{}{}
	}

	out := make([]MaterialConsumption, 0, len(buckets))
	for _, b := range buckets {
		names := make([]string, 0, len(b.productNames))
		for name := range b.productNames {
			names = append(names, name)
		}
		sort.Strings(names)
		b.consumption.ProductNames = names
		b.consumption.Severity = severityFor(b.consumption.ConsumedKg, b.consumption.CurrentStock)
		out = append(out, b.consumption)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MaterialName < out[j].MaterialName
	})
	return out
}

func severityFor(consumedKg, currentStock decimal.Decimal) Severity {
	if !currentStock.IsPositive() {
		return SeverityCritical
	}
	ratio := consumedKg.Div(currentStock)
	switch {
	case ratio.LessThan(watchRatio):
		return SeveritySafe
	case ratio.LessThan(criticalRatio):
		return SeverityWatch
	default:
		return SeverityCritical
	}
}
