package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesv/moldops-backend/api/responses"
	"github.com/rmoralesv/moldops-backend/api/validators"
	"github.com/rmoralesv/moldops-backend/internal/workorders"
	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
)

type workOrderCreateRequest struct {
	OrderNo          string  `json:"order_no" validate:"required"`
	ProductID        string  `json:"product_id" validate:"required"`
	EquipmentID      *string `json:"equipment_id"`
	MoldID           *string `json:"mold_id"`
	TargetQty        int     `json:"target_qty" validate:"required,min=1"`
	PlannedStartDate *string `json:"planned_start_date"`
}

type workOrderResponse struct {
	ID               uuid.UUID             `json:"id"`
	OrderNo          string                `json:"order_no"`
	ProductID        uuid.UUID             `json:"product_id"`
	ProductName      *string               `json:"product_name,omitempty"`
	EquipmentID      *uuid.UUID            `json:"equipment_id,omitempty"`
	MoldID           *uuid.UUID            `json:"mold_id,omitempty"`
	Status           enums.WorkOrderStatus `json:"status"`
	TargetQty        int                   `json:"target_qty"`
	ProducedQty      int                   `json:"produced_qty"`
	PlannedStartDate *string               `json:"planned_start_date,omitempty"`
	StartTime        *time.Time            `json:"start_time,omitempty"`
	EndTime          *time.Time            `json:"end_time,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type workOrderListResponse struct {
	Items  []workOrderResponse `json:"items"`
	Cursor string              `json:"cursor"`
}

func workOrderResponseFromModel(m *models.WorkOrder) workOrderResponse {
	resp := workOrderResponse{
		ID:          m.ID,
		OrderNo:     m.OrderNo,
		ProductID:   m.ProductID,
		EquipmentID: m.EquipmentID,
		MoldID:      m.MoldID,
		Status:      m.Status,
		TargetQty:   m.TargetQty,
		ProducedQty: m.ProducedQty,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Product != nil {
		resp.ProductName = &m.Product.Name
	}
	if m.PlannedStartDate != nil {
		formatted := m.PlannedStartDate.Format(dateLayout)
		resp.PlannedStartDate = &formatted
	}
	return resp
}

// WorkOrderCreate registers a pending production run.
func WorkOrderCreate(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		var body workOrderCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(body.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product_id"))
			return
		}

		equipmentID, err := parseOptionalUUID(body.EquipmentID, "equipment_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		moldID, err := parseOptionalUUID(body.MoldID, "mold_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plannedStart, err := parseOptionalDate(body.PlannedStartDate, "planned_start_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateWorkOrder(r.Context(), workorders.CreateWorkOrderInput{
			OrderNo:          strings.TrimSpace(body.OrderNo),
			ProductID:        productID,
			EquipmentID:      equipmentID,
			MoldID:           moldID,
			TargetQty:        body.TargetQty,
			PlannedStartDate: plannedStart,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, workOrderResponseFromModel(created))
	}
}

// WorkOrderGet returns one work order.
func WorkOrderGet(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetWorkOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, workOrderResponseFromModel(order))
	}
}

// WorkOrderList returns a cursor page, optionally filtered by status.
func WorkOrderList(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		var status *enums.WorkOrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseWorkOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			status = &parsed
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListWorkOrders(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := workOrderListResponse{Items: make([]workOrderResponse, 0, len(items)), Cursor: cursor}
		for i := range items {
			resp.Items = append(resp.Items, workOrderResponseFromModel(&items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

func workOrderTransition(
	logg *logger.Logger,
	run func(r *http.Request, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := run(r, orderID, workorders.Actor{UserID: actorID, Role: role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, workOrderResponseFromModel(order))
	}
}

// WorkOrderStart moves a pending order to running and occupies its machine.
func WorkOrderStart(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return workOrderTransition(logg, func(r *http.Request, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable")
		}
		return svc.Start(r.Context(), orderID, actor)
	})
}

// WorkOrderComplete finishes a running order and frees its machine.
func WorkOrderComplete(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return workOrderTransition(logg, func(r *http.Request, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable")
		}
		return svc.Complete(r.Context(), orderID, actor)
	})
}

// WorkOrderCancel cancels an order that has not completed.
func WorkOrderCancel(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return workOrderTransition(logg, func(r *http.Request, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable")
		}
		return svc.Cancel(r.Context(), orderID, actor)
	})
}

type productionReportRequest struct {
	Delta        int     `json:"delta" validate:"required,min=1"`
	ReportDate   string  `json:"report_date" validate:"required"`
	OperatorName *string `json:"operator_name"`
}

// WorkOrderRecordProduction reports a production increment on a running order.
func WorkOrderRecordProduction(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productionReportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reportDate, err := parseDate(body.ReportDate, "report_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RecordProduction(r.Context(), workorders.RecordProductionInput{
			OrderID:      orderID,
			Delta:        body.Delta,
			ReportDate:   reportDate,
			OperatorName: body.OperatorName,
			Actor:        workorders.Actor{UserID: actorID, Role: role},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, workOrderResponseFromModel(order))
	}
}

type setProducedRequest struct {
	ProducedQty *int `json:"produced_qty" validate:"required,min=0"`
}

// WorkOrderSetProduced overwrites the produced counter. Admin only.
func WorkOrderSetProduced(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setProducedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SetProducedQuantity(r.Context(), orderID, *body.ProducedQty, workorders.Actor{UserID: actorID, Role: role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, workOrderResponseFromModel(order))
	}
}

type productionRecordResponse struct {
	ID           uuid.UUID `json:"id"`
	WorkOrderID  uuid.UUID `json:"work_order_id"`
	ReportDate   string    `json:"report_date"`
	Quantity     int       `json:"quantity"`
	OperatorName *string   `json:"operator_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkOrderProductionHistory lists the reported increments for an order.
func WorkOrderProductionHistory(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListProductionRecords(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productionRecordResponse, 0, len(rows))
		for i := range rows {
			items = append(items, productionRecordResponse{
				ID:           rows[i].ID,
				WorkOrderID:  rows[i].WorkOrderID,
				ReportDate:   rows[i].ReportDate.Format(dateLayout),
				Quantity:     rows[i].Quantity,
				OperatorName: rows[i].OperatorName,
				CreatedAt:    rows[i].CreatedAt,
			})
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

type equipmentCreateRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type equipmentResponse struct {
	ID                 uuid.UUID             `json:"id"`
	Code               string                `json:"code"`
	Name               string                `json:"name"`
	Status             enums.EquipmentStatus `json:"status"`
	CurrentWorkOrderID *uuid.UUID            `json:"current_work_order_id,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

func equipmentResponseFromModel(m *models.Equipment) equipmentResponse {
	return equipmentResponse{
		ID:                 m.ID,
		Code:               m.Code,
		Name:               m.Name,
		Status:             m.Status,
		CurrentWorkOrderID: m.CurrentWorkOrderID,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// EquipmentCreate registers an injection machine.
func EquipmentCreate(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		var body equipmentCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateEquipment(r.Context(), workorders.CreateEquipmentInput{
			Code: strings.TrimSpace(body.Code),
			Name: strings.TrimSpace(body.Name),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, equipmentResponseFromModel(created))
	}
}

// EquipmentList returns every machine with its occupancy.
func EquipmentList(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		rows, err := svc.ListEquipment(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]equipmentResponse, 0, len(rows))
		for i := range rows {
			items = append(items, equipmentResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
