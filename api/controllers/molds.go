package controllers

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/api/responses"
	"github.com/rmoralesv/moldops-backend/api/validators"
	"github.com/rmoralesv/moldops-backend/internal/molds"
	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
)

type moldCreateRequest struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	CavityCount int     `json:"cavity_count" validate:"required,min=1"`
	Location    *string `json:"location"`
}

type moldResponse struct {
	ID            uuid.UUID        `json:"id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Status        enums.MoldStatus `json:"status"`
	CavityCount   int              `json:"cavity_count"`
	Location      *string          `json:"location,omitempty"`
	LastCheckDate *string          `json:"last_check_date,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type moldListResponse struct {
	Items  []moldResponse `json:"items"`
	Cursor string         `json:"cursor"`
}

func moldResponseFromModel(m *models.Mold) moldResponse {
	resp := moldResponse{
		ID:          m.ID,
		Code:        m.Code,
		Name:        m.Name,
		Status:      m.Status,
		CavityCount: m.CavityCount,
		Location:    m.Location,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.LastCheckDate != nil {
		formatted := m.LastCheckDate.Format(dateLayout)
		resp.LastCheckDate = &formatted
	}
	return resp
}

type movementResponse struct {
	ID                 uuid.UUID            `json:"id"`
	MoldID             uuid.UUID            `json:"mold_id"`
	Status             enums.MovementStatus `json:"status"`
	Destination        string               `json:"destination"`
	Reason             *string              `json:"reason,omitempty"`
	OutgoingDate       string               `json:"outgoing_date"`
	ExpectedReturnDate *string              `json:"expected_return_date,omitempty"`
	IncomingDate       *string              `json:"incoming_date,omitempty"`
	EstimatedCost      *decimal.Decimal     `json:"estimated_cost,omitempty"`
	ActualCost         *decimal.Decimal     `json:"actual_cost,omitempty"`
	RepairResult       *string              `json:"repair_result,omitempty"`
	DocumentURL        *string              `json:"document_url,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

func movementResponseFromModel(m *models.MoldMovement) movementResponse {
	resp := movementResponse{
		ID:            m.ID,
		MoldID:        m.MoldID,
		Status:        m.Status,
		Destination:   m.Destination,
		Reason:        m.Reason,
		OutgoingDate:  m.OutgoingDate.Format(dateLayout),
		EstimatedCost: m.EstimatedCost,
		ActualCost:    m.ActualCost,
		RepairResult:  m.RepairResult,
		DocumentURL:   m.DocumentURL,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.ExpectedReturnDate != nil {
		formatted := m.ExpectedReturnDate.Format(dateLayout)
		resp.ExpectedReturnDate = &formatted
	}
	if m.IncomingDate != nil {
		formatted := m.IncomingDate.Format(dateLayout)
		resp.IncomingDate = &formatted
	}
	return resp
}

// MoldCreate registers a mold asset.
func MoldCreate(svc molds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "molds service unavailable"))
			return
		}

		var body moldCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateMold(r.Context(), molds.CreateMoldInput{
			Code:        strings.TrimSpace(body.Code),
			Name:        strings.TrimSpace(body.Name),
			CavityCount: body.CavityCount,
			Location:    body.Location,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, moldResponseFromModel(created))
	}
}

// MoldGet returns one mold.
func MoldGet(svc molds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "molds service unavailable"))
			return
		}

		moldID, err := pathUUID(r, "moldID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mold, err := svc.GetMold(r.Context(), moldID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, moldResponseFromModel(mold))
	}
}

// MoldList returns a cursor page of molds.
func MoldList(svc molds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "molds service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListMolds(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := moldListResponse{Items: make([]moldResponse, 0, len(items)), Cursor: cursor}
		for i := range items {
			resp.Items = append(resp.Items, moldResponseFromModel(&items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

type moldCheckoutRequest struct {
	Destination        string           `json:"destination" validate:"required"`
	Reason             *string          `json:"reason"`
	OutgoingDate       string           `json:"outgoing_date" validate:"required"`
	ExpectedReturnDate *string          `json:"expected_return_date"`
	EstimatedCost      *decimal.Decimal `json:"estimated_cost"`
}

// MoldCheckout sends a mold out of the plant for repair or modification.
func MoldCheckout(svc molds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "molds service unavailable"))
			return
		}

		moldID, err := pathUUID(r, "moldID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body moldCheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outgoingDate, err := parseDate(body.OutgoingDate, "outgoing_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expectedReturn, err := parseOptionalDate(body.ExpectedReturnDate, "expected_return_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Checkout(r.Context(), molds.CheckoutInput{
			MoldID:             moldID,
			Destination:        strings.TrimSpace(body.Destination),
			Reason:             body.Reason,
			OutgoingDate:       outgoingDate,
			ExpectedReturnDate: expectedReturn,
			EstimatedCost:      body.EstimatedCost,
			ActorUserID:        actorID,
			ActorRole:          role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movementResponseFromModel(movement))
	}
}

type moldReturnRequest struct {
	IncomingDate    string           `json:"incoming_date" validate:"required"`
	ActualCost      *decimal.Decimal `json:"actual_cost"`
	RepairResult    *string          `json:"repair_result"`
	ResultingStatus string           `json:"resulting_status" validate:"required"`
}

// MoldReturn closes a checkout and restores the mold to the given status.
func MoldReturn(svc molds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "molds service unavailable"))
			return
		}

		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body moldReturnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		incomingDate, err := parseDate(body.IncomingDate, "incoming_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseMoldStatus(strings.TrimSpace(body.ResultingStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid resulting status"))
			return
		}

		movement, err := svc.ReturnFromCheckout(r.Context(), molds.ReturnInput{
			MovementID:      movementID,
			IncomingDate:    incomingDate,
			ActualCost:      body.ActualCost,
			RepairResult:    body.RepairResult,
			ResultingStatus: status,
			ActorUserID:     actorID,
			ActorRole:       role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, movementResponseFromModel(movement))
	}
}

type movementDocumentRequest struct {
	DocumentURL string `json:"document_url" validate:"required,url"`
}

// MovementAttachDocument links a repair quote or report to a movement.
func MovementAttachDocument(svc molds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "molds service unavailable"))
			return
		}

		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body movementDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.AttachDocument(r.Context(), movementID, strings.TrimSpace(body.DocumentURL))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, movementResponseFromModel(movement))
	}
}

// DocumentSigner mints signed upload URLs for movement documents.
type DocumentSigner interface {
	SignedURL(bucket, object, contentType string, ttl time.Duration) (string, error)
	ObjectURL(object string) string
}

type movementUploadURLRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

type movementUploadURLResponse struct {
	UploadURL   string `json:"upload_url"`
	DocumentURL string `json:"document_url"`
	ExpiresIn   int64  `json:"expires_in_seconds"`
}

// MovementDocumentUploadURL mints a signed PUT URL so the client can upload
// a repair document straight to the bucket. The final document URL is
// recorded on the movement via the attach endpoint once the upload finishes.
func MovementDocumentUploadURL(signer DocumentSigner, expiry time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if signer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document storage unavailable"))
			return
		}

		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body movementUploadURLRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fileName := path.Base(strings.TrimSpace(body.FileName))
		if fileName == "" || fileName == "." || fileName == "/" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid file name"))
			return
		}

		object := fmt.Sprintf("mold-movements/%s/%s-%s", movementID, uuid.New(), fileName)
		uploadURL, err := signer.SignedURL("", object, strings.TrimSpace(body.ContentType), expiry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "signing upload url"))
			return
		}

		responses.WriteSuccess(w, movementUploadURLResponse{
			UploadURL:   uploadURL,
			DocumentURL: signer.ObjectURL(object),
			ExpiresIn:   int64(expiry.Seconds()),
		})
	}
}

// MovementList returns the checkout history of a mold, newest first.
func MovementList(svc molds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "molds service unavailable"))
			return
		}

		moldID, err := pathUUID(r, "moldID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMovements(r.Context(), moldID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]movementResponse, 0, len(rows))
		for i := range rows {
			items = append(items, movementResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
