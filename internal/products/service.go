package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesv/moldops-backend/pkg/db"
	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/pagination"
)

// Service manages the product master. Shot weights live here; the consumption
// projection reads them to convert produced units into material draw.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, input UpdateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params) ([]models.Product, string, error)
}

type service struct {
	repo Repository
}

// CreateProductInput carries the fields for a new product definition.
type CreateProductInput struct {
	Code              string
	Name              string
	MaterialID        *uuid.UUID
	UnitWeightGrams   decimal.Decimal
	RunnerWeightGrams decimal.Decimal
	UnitPrice         *decimal.Decimal
}

// UpdateProductInput updates product fields. Nil pointers leave the stored
// value untouched.
type UpdateProductInput struct {
	ProductID         uuid.UUID
	Name              *string
	MaterialID        *uuid.UUID
	UnitWeightGrams   *decimal.Decimal
	RunnerWeightGrams *decimal.Decimal
	UnitPrice         *decimal.Decimal
}

// NewService wires a product service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product code required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.UnitWeightGrams.IsNegative() || input.RunnerWeightGrams.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weights cannot be negative")
	}

	product := &models.Product{
		Code:              input.Code,
		Name:              input.Name,
		MaterialID:        input.MaterialID,
		UnitWeightGrams:   input.UnitWeightGrams,
		RunnerWeightGrams: input.RunnerWeightGrams,
		UnitPrice:         input.UnitPrice,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, input UpdateProductInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = *input.Name
	}
	if input.MaterialID != nil {
		product.MaterialID = input.MaterialID
	}
	if input.UnitWeightGrams != nil {
		if input.UnitWeightGrams.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit weight cannot be negative")
		}
		product.UnitWeightGrams = *input.UnitWeightGrams
	}
	if input.RunnerWeightGrams != nil {
		if input.RunnerWeightGrams.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "runner weight cannot be negative")
		}
		product.RunnerWeightGrams = *input.RunnerWeightGrams
	}
	if input.UnitPrice != nil {
		product.UnitPrice = input.UnitPrice
	}

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	rows, next, err := s.repo.ListProductsPage(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, next, nil
}
