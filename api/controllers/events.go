package controllers

import (
	"net/http"

	"github.com/solsticehq/beacon-messaging/api/responses"
	"github.com/solsticehq/beacon-messaging/api/validators"
	"github.com/solsticehq/beacon-messaging/internal/engine"
	pkgerrors "github.com/solsticehq/beacon-messaging/pkg/errors"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

type TriggerEventBody struct {
	EventName string             `json:"eventName" validate:"required,min=1,max=128"`
	Payload   map[string]*string `json:"payload"`
}

// TriggerEvent runs the messaging pipeline for one business event occurrence.
func TriggerEvent(svc engine.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engine service unavailable"))
			return
		}

		var body TriggerEventBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TriggerEvent(r.Context(), body.EventName, engine.EventPayload(body.Payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
