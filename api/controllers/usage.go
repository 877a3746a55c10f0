package controllers

import (
	"net/http"
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

type usageCreateRequest struct {
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UsageDate   string          `json:"usage_date" validate:"required"`
	WorkOrderNo *string         `json:"work_order_no"`
	Note        *string         `json:"note"`
}

type usageEditRequest struct {
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UsageDate   *string         `json:"usage_date"`
	WorkOrderNo *string         `json:"work_order_no"`
	Note        *string         `json:"note"`
}

type usageResponse struct {
	ID          uuid.UUID       `json:"id"`
	MaterialID  uuid.UUID       `json:"material_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UsageDate   string          `json:"usage_date"`
	WorkOrderNo *string         `json:"work_order_no,omitempty"`
	Note        *string         `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func usageResponseFromModel(m *models.UsageRecord) usageResponse {
	return usageResponse{
		ID:          m.ID,
		MaterialID:  m.MaterialID,
		Quantity:    m.Quantity,
		UsageDate:   m.UsageDate.Format(dateLayout),
		WorkOrderNo: m.WorkOrderNo,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// UsageCreate records a material draw and decrements stock.
func UsageCreate(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
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

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body usageCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		usageDate, err := parseDate(body.UsageDate, "usage_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.RecordUsage(r.Context(), materials.RecordUsageInput{
			MaterialID:  materialID,
			Quantity:    body.Quantity,
			UsageDate:   usageDate,
			WorkOrderNo: body.WorkOrderNo,
			Note:        body.Note,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, usageResponseFromModel(created))
	}
}

// UsageList returns usage rows for a material within an optional date range.
func UsageList(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
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

		from, to, err := dateRangeQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListUsage(r.Context(), materialID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]usageResponse, 0, len(rows))
		for i := range rows {
			items = append(items, usageResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// UsageEdit corrects a usage record. The compensating stock delta is computed
// against the quantity currently stored, not the one the client last saw.
func UsageEdit(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		usageID, err := pathUUID(r, "usageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body usageEditRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		usageDate, err := parseOptionalDate(body.UsageDate, "usage_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stored, err := svc.GetUsage(r.Context(), usageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.EditUsage(r.Context(), materials.EditUsageInput{
			UsageID:     usageID,
			OldQuantity: stored.Quantity,
			Quantity:    body.Quantity,
			UsageDate:   usageDate,
			WorkOrderNo: body.WorkOrderNo,
			Note:        body.Note,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, usageResponseFromModel(updated))
	}
}

// UsageDelete removes a usage record and restores its quantity to stock.
func UsageDelete(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		usageID, err := pathUUID(r, "usageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stored, err := svc.GetUsage(r.Context(), usageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteUsage(r.Context(), materials.DeleteUsageInput{
			UsageID:     usageID,
			MaterialID:  stored.MaterialID,
			Quantity:    stored.Quantity,
			ActorUserID: actorID,
			ActorRole:   role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
