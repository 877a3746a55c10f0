package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/api/responses"
	"github.com/rmoralesv/moldops-backend/api/validators"
	"github.com/rmoralesv/moldops-backend/internal/materials"
	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
)

type materialCreateRequest struct {
	Name       string           `json:"name" validate:"required"`
	Spec       *string          `json:"spec"`
	Unit       string           `json:"unit"`
	MinStock   *decimal.Decimal `json:"min_stock"`
	SupplierID *string          `json:"supplier_id"`
}

type materialUpdateRequest struct {
	Name       *string          `json:"name"`
	Spec       *string          `json:"spec"`
	Unit       *string          `json:"unit"`
	MinStock   *decimal.Decimal `json:"min_stock"`
	SupplierID *string          `json:"supplier_id"`
}

type materialResponse struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Spec         *string          `json:"spec,omitempty"`
	Unit         string           `json:"unit"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	MinStock     decimal.Decimal  `json:"min_stock"`
	SupplierID   *uuid.UUID       `json:"supplier_id,omitempty"`
	Supplier     *supplierSummary `json:"supplier,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type supplierSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Contact *string   `json:"contact,omitempty"`
	Phone   *string   `json:"phone,omitempty"`
}

type materialListResponse struct {
	Items  []materialResponse `json:"items"`
	Cursor string             `json:"cursor"`
}

func materialResponseFromModel(m *models.Material) materialResponse {
	resp := materialResponse{
		ID:           m.ID,
		Name:         m.Name,
		Spec:         m.Spec,
		Unit:         m.Unit,
		CurrentStock: m.CurrentStock,
		MinStock:     m.MinStock,
		SupplierID:   m.SupplierID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Supplier != nil {
		resp.Supplier = &supplierSummary{
			ID:      m.Supplier.ID,
			Name:    m.Supplier.Name,
			Contact: m.Supplier.Contact,
			Phone:   m.Supplier.Phone,
		}
	}
	return resp
}

// MaterialCreate registers a raw-material master record.
func MaterialCreate(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		var body materialCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := parseOptionalUUID(body.SupplierID, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := materials.CreateMaterialInput{
			Name:       strings.TrimSpace(body.Name),
			Spec:       body.Spec,
			Unit:       strings.TrimSpace(body.Unit),
			SupplierID: supplierID,
		}
		if body.MinStock != nil {
			input.MinStock = *body.MinStock
		}

		created, err := svc.CreateMaterial(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, materialResponseFromModel(created))
	}
}

// MaterialUpdate edits master-record fields. Stock is never writable here.
func MaterialUpdate(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		materialID, err := pathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body materialUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := parseOptionalUUID(body.SupplierID, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateMaterial(r.Context(), materials.UpdateMaterialInput{
			MaterialID: materialID,
			Name:       body.Name,
			Spec:       body.Spec,
			Unit:       body.Unit,
			MinStock:   body.MinStock,
			SupplierID: supplierID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, materialResponseFromModel(updated))
	}
}

// MaterialGet returns one material with its supplier preloaded.
func MaterialGet(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		materialID, err := pathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.GetMaterial(r.Context(), materialID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, materialResponseFromModel(material))
	}
}

// MaterialList returns a cursor page of materials.
func MaterialList(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListMaterials(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := materialListResponse{Items: make([]materialResponse, 0, len(items)), Cursor: cursor}
		for i := range items {
			resp.Items = append(resp.Items, materialResponseFromModel(&items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

type stockAtDateResponse struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Date       string          `json:"date"`
	Stock      decimal.Decimal `json:"stock"`
}

// MaterialStockAtDate reconstructs historical stock as of end of the given day.
func MaterialStockAtDate(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		materialID, err := pathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("date"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date query parameter required"))
			return
		}
		cutoff, err := parseDate(raw, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stock, err := svc.StockAtDate(r.Context(), materialID, cutoff)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stockAtDateResponse{
			MaterialID: materialID,
			Date:       cutoff.Format(dateLayout),
			Stock:      stock,
		})
	}
}
