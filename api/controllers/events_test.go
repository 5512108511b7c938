package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/solsticehq/beacon-messaging/internal/engine"
	pkgerrors "github.com/solsticehq/beacon-messaging/pkg/errors"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
	"github.com/solsticehq/beacon-messaging/pkg/types"
)

type fakeEngineService struct {
	triggerFn func(ctx context.Context, eventName string, payload engine.EventPayload) (*engine.TriggerResult, error)
	listFn    func(ctx context.Context, params engine.ListEnrollmentsParams) (*engine.EnrollmentList, error)
}

func (f *fakeEngineService) TriggerEvent(ctx context.Context, eventName string, payload engine.EventPayload) (*engine.TriggerResult, error) {
	if f.triggerFn == nil {
		return &engine.TriggerResult{}, nil
	}
	return f.triggerFn(ctx, eventName, payload)
}

func (f *fakeEngineService) ListEnrollments(ctx context.Context, params engine.ListEnrollmentsParams) (*engine.EnrollmentList, error) {
	if f.listFn == nil {
		return &engine.EnrollmentList{}, nil
	}
	return f.listFn(ctx, params)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestTriggerEventReturnsResult(t *testing.T) {
	svc := &fakeEngineService{
		triggerFn: func(ctx context.Context, eventName string, payload engine.EventPayload) (*engine.TriggerResult, error) {
			if eventName != "user_signed_up" {
				t.Fatalf("unexpected event name %q", eventName)
			}
			if payload.Email() != "ava@example.com" {
				t.Fatalf("unexpected payload email %q", payload.Email())
			}
			return &engine.TriggerResult{RulesFired: 2, SequencesEnrolled: 1}, nil
		},
	}

	body := `{"eventName":"user_signed_up","payload":{"email":"ava@example.com","name":"Ava"}}`
	req := httptest.NewRequest(http.MethodPost, "/events/trigger", strings.NewReader(body))
	w := httptest.NewRecorder()
	TriggerEvent(svc, testLogger())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape %T", envelope.Data)
	}
	if data["rulesFired"] != float64(2) {
		t.Fatalf("expected rulesFired 2, got %v", data["rulesFired"])
	}
	if data["sequencesEnrolled"] != float64(1) {
		t.Fatalf("expected sequencesEnrolled 1, got %v", data["sequencesEnrolled"])
	}
}

func TestTriggerEventRejectsMissingEventName(t *testing.T) {
	svc := &fakeEngineService{
		triggerFn: func(ctx context.Context, eventName string, payload engine.EventPayload) (*engine.TriggerResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/events/trigger", strings.NewReader(`{"payload":{}}`))
	w := httptest.NewRecorder()
	TriggerEvent(svc, testLogger())(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestTriggerEventRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/events/trigger", strings.NewReader(`{"eventName":`))
	w := httptest.NewRecorder()
	TriggerEvent(&fakeEngineService{}, testLogger())(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestTriggerEventPropagatesServiceError(t *testing.T) {
	svc := &fakeEngineService{
		triggerFn: func(ctx context.Context, eventName string, payload engine.EventPayload) (*engine.TriggerResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "rules unavailable")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/events/trigger", strings.NewReader(`{"eventName":"user_signed_up"}`))
	w := httptest.NewRecorder()
	TriggerEvent(svc, testLogger())(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
