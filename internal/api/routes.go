// Package api собирает HTTP поверхность сервиса: маршруты, handlers, middleware.
package api

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"riskmonitor/internal/api/handlers"
	"riskmonitor/internal/api/middleware"
	"riskmonitor/internal/monitor"
	"riskmonitor/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Registry  *monitor.Registry
	Scheduler *monitor.Scheduler

	CycleInterval time.Duration
	Logger        *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
//
// Структура маршрутов:
//
// /api/v1/
//
//	└── /monitor/status
//	    └── GET - состояние планировщика и подписок
//
// /ws/alerts?user_id= - WebSocket подписка на live-алерты
// /health - liveness
// /metrics - Prometheus
// /debug/pprof/* - профилирование (за DebugAuth)
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. DebugAuth (только /debug)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logging(deps.Logger))
	router.Use(middleware.CORS)

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	statusHandler := handlers.NewStatusHandler(deps.Scheduler, deps.Registry, deps.CycleInterval)
	apiV1.HandleFunc("/monitor/status", statusHandler.GetStatus).Methods("GET")

	// WebSocket подписка на live-алерты
	router.HandleFunc("/ws/alerts", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWS(deps.Registry, deps.Logger, w, r)
	}).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Профилирование за Basic auth
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("/").HandlerFunc(pprof.Index)

	return router
}
