package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solsticehq/beacon-messaging/pkg/config"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func healthConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	w := httptest.NewRecorder()
	HealthLive(healthConfig())(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Beacon-Env"); got != "test" {
		t.Fatalf("expected env header test, got %q", got)
	}
}

func TestHealthReadyChecksDependencies(t *testing.T) {
	w := httptest.NewRecorder()
	handler := HealthReady(healthConfig(), testLogger(), fakePinger{}, fakePinger{})
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHealthReadyFailsWhenDatabaseDown(t *testing.T) {
	w := httptest.NewRecorder()
	handler := HealthReady(healthConfig(), testLogger(), fakePinger{err: errors.New("down")}, fakePinger{})
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestHealthReadyFailsWhenRedisDown(t *testing.T) {
	w := httptest.NewRecorder()
	handler := HealthReady(healthConfig(), testLogger(), fakePinger{}, fakePinger{err: errors.New("down")})
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
