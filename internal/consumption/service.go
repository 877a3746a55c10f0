package consumption

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
)

type productionSource interface {
	ListProductionRecordsByDate(ctx context.Context, date time.Time) ([]models.ProductionRecord, error)
}

type productSource interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type materialSource interface {
	ListAllMaterials(ctx context.Context) ([]models.Material, error)
}

// Service computes the per-day material consumption projection. It reads
// from the production, product and material stores and never writes.
type Service interface {
	ForDate(ctx context.Context, date time.Time) ([]MaterialConsumption, error)
}

type service struct {
	production productionSource
	products   productSource
	materials  materialSource
}

// NewService wires a consumption service with the required read sources.
func NewService(production productionSource, products productSource, materials materialSource) (Service, error) {
	if production == nil {
		return nil, fmt.Errorf("production source required")
	}
	if products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if materials == nil {
		return nil, fmt.Errorf("material source required")
	}
	return &service{production: production, products: products, materials: materials}, nil
}

func (s *service) ForDate(ctx context.Context, date time.Time) ([]MaterialConsumption, error) {
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date required")
	}

	records, err := s.production.ListProductionRecordsByDate(ctx, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load production records")
	}
	if len(records) == 0 {
		return []MaterialConsumption{}, nil
	}

	productRows, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	materialRows, err := s.materials.ListAllMaterials(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load materials")
	}

	products := make(map[uuid.UUID]models.Product, len(productRows))
	for _, p := range productRows {
		products[p.ID] = p
	}
	materials := make(map[uuid.UUID]models.Material, len(materialRows))
	for _, m := range materialRows {
		materials[m.ID] = m
	}

	return Aggregate(records, products, materials), nil
}
