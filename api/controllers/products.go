package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/api/responses"
	"github.com/rmoralesv/moldops-backend/api/validators"
	"github.com/rmoralesv/moldops-backend/internal/products"
	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
)

type productCreateRequest struct {
	Code              string           `json:"code" validate:"required"`
	Name              string           `json:"name" validate:"required"`
	MaterialID        *string          `json:"material_id"`
	UnitWeightGrams   decimal.Decimal  `json:"unit_weight_grams"`
	RunnerWeightGrams decimal.Decimal  `json:"runner_weight_grams"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
}

type productUpdateRequest struct {
	Name              *string          `json:"name"`
	MaterialID        *string          `json:"material_id"`
	UnitWeightGrams   *decimal.Decimal `json:"unit_weight_grams"`
	RunnerWeightGrams *decimal.Decimal `json:"runner_weight_grams"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
}

type productResponse struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	MaterialID        *uuid.UUID       `json:"material_id,omitempty"`
	MaterialName      *string          `json:"material_name,omitempty"`
	UnitWeightGrams   decimal.Decimal  `json:"unit_weight_grams"`
	RunnerWeightGrams decimal.Decimal  `json:"runner_weight_grams"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type productListResponse struct {
	Items  []productResponse `json:"items"`
	Cursor string            `json:"cursor"`
}

func productResponseFromModel(m *models.Product) productResponse {
	resp := productResponse{
		ID:                m.ID,
		Code:              m.Code,
		Name:              m.Name,
		MaterialID:        m.MaterialID,
		UnitWeightGrams:   m.UnitWeightGrams,
		RunnerWeightGrams: m.RunnerWeightGrams,
		UnitPrice:         m.UnitPrice,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.Material != nil {
		resp.MaterialName = &m.Material.Name
	}
	return resp
}

// ProductCreate registers a molded part definition.
func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		var body productCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		materialID, err := parseOptionalUUID(body.MaterialID, "material_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateProduct(r.Context(), products.CreateProductInput{
			Code:              strings.TrimSpace(body.Code),
			Name:              strings.TrimSpace(body.Name),
			MaterialID:        materialID,
			UnitWeightGrams:   body.UnitWeightGrams,
			RunnerWeightGrams: body.RunnerWeightGrams,
			UnitPrice:         body.UnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, productResponseFromModel(created))
	}
}

// ProductUpdate edits a product. Code is immutable.
func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		materialID, err := parseOptionalUUID(body.MaterialID, "material_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), products.UpdateProductInput{
			ProductID:         productID,
			Name:              body.Name,
			MaterialID:        materialID,
			UnitWeightGrams:   body.UnitWeightGrams,
			RunnerWeightGrams: body.RunnerWeightGrams,
			UnitPrice:         body.UnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productResponseFromModel(updated))
	}
}

// ProductGet returns one product with its material preloaded.
func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productResponseFromModel(product))
	}
}

// ProductList returns a cursor page of products.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListProducts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := productListResponse{Items: make([]productResponse, 0, len(items)), Cursor: cursor}
		for i := range items {
			resp.Items = append(resp.Items, productResponseFromModel(&items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}
