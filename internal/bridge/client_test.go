package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	cfg := DefaultConfig(baseURL)
	cfg.RateLimit = 1000 // тесты не должны упираться в rate limiter
	cfg.RateBurst = 1000
	return NewClient(cfg, zap.NewNop())
}

// ============================================================
// HealthCheck Tests
// ============================================================

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		healthy bool
	}{
		{"healthy", http.StatusOK, `{"status":"healthy","service":"mt5-service","mt5_initialized":true}`, true},
		{"mt5 not initialized", http.StatusOK, `{"status":"healthy","mt5_initialized":false}`, false},
		{"degraded status", http.StatusOK, `{"status":"degraded","mt5_initialized":true}`, false},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, false},
		{"invalid json", http.StatusOK, `not json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("неожиданный путь %q", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			if got := c.HealthCheck(context.Background()); got != tt.healthy {
				t.Errorf("HealthCheck() = %v, want %v", got, tt.healthy)
			}
		})
	}
}

func TestHealthCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // закрываем сразу - соединение будет отклонено

	c := newTestClient(srv.URL)
	if c.HealthCheck(context.Background()) {
		t.Error("недоступный bridge должен считаться нездоровым")
	}
}

// ============================================================
// Spread Tests
// ============================================================

func TestSpread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/symbol-info/EURUSD" {
			t.Errorf("неожиданный путь %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"symbol":"EURUSD","bid":1.0000,"ask":1.0300,"spread":0.03}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	spread, err := c.Spread(context.Background(), "eurusd")
	if err != nil {
		t.Fatalf("Spread: %v", err)
	}

	// (1.03 - 1.00) / 1.00 = 0.03
	if math.Abs(spread-0.03) > 1e-9 {
		t.Errorf("Spread = %v, want 0.03", spread)
	}
}

func TestSpread_SymbolUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"Symbol XAUUSD not found"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Spread(context.Background(), "XAUUSD")
	if !errors.Is(err, ErrSymbolUnavailable) {
		t.Fatalf("ожидали ErrSymbolUnavailable, получили %v", err)
	}

	// Недоступный символ не должен повторяться
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("ожидали 1 запрос без retry, получили %d", n)
	}
}

func TestSpread_ZeroBid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"BROKEN","bid":0,"ask":1.5}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Spread(context.Background(), "BROKEN")
	if !errors.Is(err, ErrSymbolUnavailable) {
		t.Errorf("нулевой bid: ожидали ErrSymbolUnavailable, получили %v", err)
	}
}

func TestSpread_RetriesNetworkErrors(t *testing.T) {
	// Первый запрос обрывается, второй успешен
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// Обрываем соединение без ответа
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("httptest recorder не поддерживает hijack")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		fmt.Fprint(w, `{"symbol":"EURUSD","bid":1.0,"ask":1.01}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	spread, err := c.Spread(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("Spread после retry: %v", err)
	}
	if math.Abs(spread-0.01) > 1e-9 {
		t.Errorf("Spread = %v, want 0.01", spread)
	}
	if n := atomic.LoadInt32(&calls); n < 2 {
		t.Errorf("ожидали повторный запрос, было %d", n)
	}
}
