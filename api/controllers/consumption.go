package controllers

import (
	"net/http"
	"strings"

	"github.com/rmoralesv/moldops-backend/api/responses"
	"github.com/rmoralesv/moldops-backend/internal/consumption"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
)

// ConsumptionForDate aggregates material consumption from the production
// reported on the given day.
func ConsumptionForDate(svc consumption.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "consumption service unavailable"))
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("date"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date query parameter required"))
			return
		}
		date, err := parseDate(raw, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ForDate(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"date":  date.Format(dateLayout),
			"items": items,
		})
	}
}
