package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

type statsSourceStub struct {
	stats model.GlobalStats
}

func (s statsSourceStub) GlobalStats(context.Context) model.GlobalStats {
	return s.stats
}

func TestHealthHandlerOK(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	})

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var body healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "ok" || body.Checks["redis"] != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthHandlerDegraded(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
		"redis":    func(context.Context) error { return nil },
	})

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var body healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "degraded" || body.Checks["postgres"] != "connection refused" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStatsHandler(t *testing.T) {
	h := NewStatsHandler(statsSourceStub{stats: model.GlobalStats{Spaces: 3, Joins: 40, Bans: 2, MaintenanceHits: 1}})

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if raw["spaces"] != float64(3) || raw["joins"] != float64(40) || raw["maintenance_hits"] != float64(1) {
		t.Fatalf("unexpected stats payload: %v", raw)
	}

	missing := NewStatsHandler(nil)
	rr = httptest.NewRecorder()
	missing.Get(rr, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil source should be unavailable, got %d", rr.Code)
	}
}
