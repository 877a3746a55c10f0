package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/api/responses"
	"github.com/rmoralesv/moldops-backend/api/validators"
	"github.com/rmoralesv/moldops-backend/internal/shipments"
	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
)

type transactionCreateRequest struct {
	Type            string           `json:"type" validate:"required"`
	ItemCode        *string          `json:"item_code"`
	ItemName        string           `json:"item_name" validate:"required"`
	Unit            *string          `json:"unit"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	TransactionDate string           `json:"transaction_date" validate:"required"`
	ClientName      *string          `json:"client_name"`
	Note            *string          `json:"note"`
}

type transactionResponse struct {
	ID              uuid.UUID                      `json:"id"`
	Type            enums.InventoryTransactionType `json:"type"`
	ItemCode        *string                        `json:"item_code,omitempty"`
	ItemName        string                         `json:"item_name"`
	Unit            *string                        `json:"unit,omitempty"`
	Quantity        decimal.Decimal                `json:"quantity"`
	UnitPrice       *decimal.Decimal               `json:"unit_price,omitempty"`
	TransactionDate string                         `json:"transaction_date"`
	ClientName      *string                        `json:"client_name,omitempty"`
	Note            *string                        `json:"note,omitempty"`
	CreatedAt       time.Time                      `json:"created_at"`
}

func transactionResponseFromModel(m *models.InventoryTransaction) transactionResponse {
	return transactionResponse{
		ID:              m.ID,
		Type:            m.Type,
		ItemCode:        m.ItemCode,
		ItemName:        m.ItemName,
		Unit:            m.Unit,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		TransactionDate: m.TransactionDate.Format(dateLayout),
		ClientName:      m.ClientName,
		Note:            m.Note,
		CreatedAt:       m.CreatedAt,
	}
}

// TransactionCreate records one finished-goods move, in or out.
func TransactionCreate(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		var body transactionCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txType, err := enums.ParseInventoryTransactionType(strings.TrimSpace(body.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type"))
			return
		}

		txDate, err := parseDate(body.TransactionDate, "transaction_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.RecordTransaction(r.Context(), shipments.RecordTransactionInput{
			Type:            txType,
			ItemCode:        body.ItemCode,
			ItemName:        strings.TrimSpace(body.ItemName),
			Unit:            body.Unit,
			Quantity:        body.Quantity,
			UnitPrice:       body.UnitPrice,
			TransactionDate: txDate,
			ClientName:      body.ClientName,
			Note:            body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponseFromModel(created))
	}
}

// TransactionList returns transactions filtered by type and date range.
func TransactionList(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		filter := shipments.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			txType, err := enums.ParseInventoryTransactionType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type"))
				return
			}
			filter.Type = &txType
		}

		from, to, err := dateRangeQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.From = from
		filter.To = to

		rows, err := svc.ListTransactions(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]transactionResponse, 0, len(rows))
		for i := range rows {
			items = append(items, transactionResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// InventorySnapshot replays transactions to rebuild per-item stock at a date.
func InventorySnapshot(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
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

		items, err := svc.SnapshotAt(r.Context(), cutoff)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"date":  cutoff.Format(dateLayout),
			"items": items,
		})
	}
}
