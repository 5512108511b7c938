package controllers

import (
	"net/http"
	"strings"

	"github.com/solsticehq/beacon-messaging/api/responses"
	"github.com/solsticehq/beacon-messaging/api/validators"
	"github.com/solsticehq/beacon-messaging/internal/engine"
	pkgerrors "github.com/solsticehq/beacon-messaging/pkg/errors"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

// ListEnrollments returns paginated enrollments for one sequence.
func ListEnrollments(svc engine.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engine service unavailable"))
			return
		}

		sequenceID, err := validators.ParseUUIDParam(r, "sequenceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := engine.ListEnrollmentsParams{
			SequenceID: sequenceID,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
			Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		}

		list, err := svc.ListEnrollments(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
