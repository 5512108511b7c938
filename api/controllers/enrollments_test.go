package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/solsticehq/beacon-messaging/internal/engine"
)

func TestListEnrollmentsParsesQuery(t *testing.T) {
	sequenceID := uuid.New()
	var seen engine.ListEnrollmentsParams
	svc := &fakeEngineService{
		listFn: func(ctx context.Context, params engine.ListEnrollmentsParams) (*engine.EnrollmentList, error) {
			seen = params
			return &engine.EnrollmentList{}, nil
		},
	}

	r := chi.NewRouter()
	r.Get("/sequences/{sequenceId}/enrollments", ListEnrollments(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/sequences/"+sequenceID.String()+"/enrollments?limit=10&status=active&cursor=abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if seen.SequenceID != sequenceID {
		t.Fatalf("expected sequence id %s, got %s", sequenceID, seen.SequenceID)
	}
	if seen.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", seen.Limit)
	}
	if seen.Status != "active" {
		t.Fatalf("expected status active, got %q", seen.Status)
	}
	if seen.Cursor != "abc" {
		t.Fatalf("expected cursor abc, got %q", seen.Cursor)
	}
}

func TestListEnrollmentsRejectsBadSequenceID(t *testing.T) {
	svc := &fakeEngineService{
		listFn: func(ctx context.Context, params engine.ListEnrollmentsParams) (*engine.EnrollmentList, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	r := chi.NewRouter()
	r.Get("/sequences/{sequenceId}/enrollments", ListEnrollments(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/sequences/not-a-uuid/enrollments", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListEnrollmentsRejectsOutOfRangeLimit(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/sequences/{sequenceId}/enrollments", ListEnrollments(&fakeEngineService{}, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/sequences/"+uuid.NewString()+"/enrollments?limit=9999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
