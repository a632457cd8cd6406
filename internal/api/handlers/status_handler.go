package handlers

import (
	"net/http"
	"time"
)

// EngineStatus - состояние планировщика мониторинга
type EngineStatus interface {
	Running() bool
}

// SubscriptionRegistry - состояние реестра подписок
type SubscriptionRegistry interface {
	Count() int
	Users() []string
}

// StatusHandler отвечает за операционный статус движка
//
// Endpoints:
// - GET /api/v1/monitor/status - состояние планировщика и подписок
type StatusHandler struct {
	engine   EngineStatus
	registry SubscriptionRegistry

	interval  time.Duration
	startedAt time.Time
}

// NewStatusHandler создает новый StatusHandler с внедрением зависимостей
func NewStatusHandler(engine EngineStatus, registry SubscriptionRegistry, interval time.Duration) *StatusHandler {
	return &StatusHandler{
		engine:    engine,
		registry:  registry,
		interval:  interval,
		startedAt: time.Now().UTC(),
	}
}

// StatusResponse представляет ответ статуса движка
type StatusResponse struct {
	Running             bool     `json:"running"`
	CycleInterval       string   `json:"cycle_interval"`
	ActiveSubscriptions int      `json:"active_subscriptions"`
	SubscribedUsers     []string `json:"subscribed_users"`
	UptimeSeconds       int64    `json:"uptime_seconds"`
}

// GetStatus возвращает текущее состояние движка мониторинга
//
// GET /api/v1/monitor/status
//
// HTTP коды:
// - 200 OK: всегда, даже если планировщик остановлен
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, StatusResponse{
		Running:             h.engine.Running(),
		CycleInterval:       h.interval.String(),
		ActiveSubscriptions: h.registry.Count(),
		SubscribedUsers:     h.registry.Users(),
		UptimeSeconds:       int64(time.Since(h.startedAt).Seconds()),
	})
}
