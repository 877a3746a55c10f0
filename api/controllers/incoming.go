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

type incomingCreateRequest struct {
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	ArrivalDate string          `json:"arrival_date" validate:"required"`
	SupplierID  *string         `json:"supplier_id"`
	BatchNo     *string         `json:"batch_no"`
	Note        *string         `json:"note"`
}

type incomingResponse struct {
	ID          uuid.UUID       `json:"id"`
	MaterialID  uuid.UUID       `json:"material_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ArrivalDate string          `json:"arrival_date"`
	SupplierID  *uuid.UUID      `json:"supplier_id,omitempty"`
	BatchNo     *string         `json:"batch_no,omitempty"`
	Note        *string         `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func incomingResponseFromModel(m *models.IncomingRecord) incomingResponse {
	return incomingResponse{
		ID:          m.ID,
		MaterialID:  m.MaterialID,
		Quantity:    m.Quantity,
		ArrivalDate: m.ArrivalDate.Format(dateLayout),
		SupplierID:  m.SupplierID,
		BatchNo:     m.BatchNo,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
	}
}

// IncomingCreate records a raw-material delivery and increments stock.
func IncomingCreate(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body incomingCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		arrivalDate, err := parseDate(body.ArrivalDate, "arrival_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := parseOptionalUUID(body.SupplierID, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.RecordIncoming(r.Context(), materials.RecordIncomingInput{
			MaterialID:  materialID,
			Quantity:    body.Quantity,
			ArrivalDate: arrivalDate,
			SupplierID:  supplierID,
			BatchNo:     body.BatchNo,
			Note:        body.Note,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, incomingResponseFromModel(created))
	}
}

// IncomingList returns deliveries for a material within an optional date range.
func IncomingList(svc materials.Service, logg *logger.Logger) http.HandlerFunc {
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

		rows, err := svc.ListIncoming(r.Context(), materialID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]incomingResponse, 0, len(rows))
		for i := range rows {
			items = append(items, incomingResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
