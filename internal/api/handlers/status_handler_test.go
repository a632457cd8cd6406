package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// ============ StatusHandler Tests ============

func TestStatusHandler_GetStatus(t *testing.T) {
	t.Run("reports running engine with subscribers", func(t *testing.T) {
		handler := NewStatusHandler(
			&MockEngine{running: true},
			&MockRegistry{users: []string{"u1", "u2"}},
			10*time.Second,
		)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/monitor/status", nil)
		w := httptest.NewRecorder()

		handler.GetStatus(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response StatusResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if !response.Running {
			t.Error("expected running=true")
		}
		if response.ActiveSubscriptions != 2 {
			t.Errorf("expected 2 subscriptions, got %d", response.ActiveSubscriptions)
		}
		if response.CycleInterval != "10s" {
			t.Errorf("expected interval 10s, got %q", response.CycleInterval)
		}
	})

	t.Run("reports stopped engine", func(t *testing.T) {
		handler := NewStatusHandler(
			&MockEngine{running: false},
			&MockRegistry{},
			10*time.Second,
		)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/monitor/status", nil)
		w := httptest.NewRecorder()

		handler.GetStatus(w, req)

		var response StatusResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response.Running {
			t.Error("expected running=false")
		}
		if response.ActiveSubscriptions != 0 {
			t.Errorf("expected 0 subscriptions, got %d", response.ActiveSubscriptions)
		}
	})
}
