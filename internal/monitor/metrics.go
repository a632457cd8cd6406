package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики движка мониторинга
// ============================================================
//
// Покрывают три проблемные зоны эксплуатации:
// - отставание циклов (длительность > интервала, пропуски тиков)
// - здоровье upstream feed (пропущенные по health gate циклы)
// - давление rate limiter'а (отклонённые алерты)

// ============ Метрики цикла ============

// CycleDuration - длительность одного цикла оценки
var CycleDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "riskmonitor",
		Subsystem: "engine",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a single monitoring cycle in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
)

// CyclesTotal - количество циклов по результату
var CyclesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "engine",
		Name:      "cycles_total",
		Help:      "Total number of monitoring cycles by outcome",
	},
	[]string{"outcome"}, // completed, skipped_overlap, skipped_unhealthy, skipped_empty
)

// UserEvaluationErrors - ошибки оценки отдельных пользователей
var UserEvaluationErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "engine",
		Name:      "user_evaluation_errors_total",
		Help:      "Number of per-user evaluation failures (cycle continues)",
	},
)

// ============ Метрики алертов ============

// AlertsGenerated - сгенерированные кандидаты по типам
var AlertsGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "alerts",
		Name:      "generated_total",
		Help:      "Number of alert candidates produced by the rule engine",
	},
	[]string{"type", "priority"},
)

// AlertsRateLimited - алерты, отклонённые admission control
var AlertsRateLimited = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "alerts",
		Name:      "rate_limited_total",
		Help:      "Number of alerts rejected by the per-user hourly limit",
	},
)

// AlertsPersistFailed - ошибки записи алертов в БД
var AlertsPersistFailed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "alerts",
		Name:      "persist_failed_total",
		Help:      "Number of alerts dropped because the database write failed",
	},
)

// AlertsDelivered - алерты, доставленные по live-каналу
var AlertsDelivered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "alerts",
		Name:      "delivered_total",
		Help:      "Number of alerts pushed to subscribers by outcome",
	},
	[]string{"outcome"}, // pushed, no_subscriber, push_failed
)

// UpstreamHealthy - состояние upstream feed по последней проверке
var UpstreamHealthy = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "riskmonitor",
		Subsystem: "engine",
		Name:      "upstream_healthy",
		Help:      "Result of the last upstream feed health check (1=healthy, 0=unhealthy)",
	},
)

// ============ Метрики подписок ============

// ActiveSubscriptions - текущее количество активных подписок
var ActiveSubscriptions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "riskmonitor",
		Subsystem: "subscriptions",
		Name:      "active",
		Help:      "Current number of active alert subscriptions",
	},
)

// SubscriptionsEvicted - подписки, выброшенные health monitor'ом
var SubscriptionsEvicted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "subscriptions",
		Name:      "evicted_total",
		Help:      "Number of subscriptions evicted due to stale heartbeat",
	},
)

// HeartbeatsSent - отправленные heartbeat события
var HeartbeatsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskmonitor",
		Subsystem: "subscriptions",
		Name:      "heartbeats_total",
		Help:      "Number of heartbeat events by outcome",
	},
	[]string{"outcome"}, // sent, failed
)

// ============ Вспомогательные функции ============

// RecordCycle записывает результат цикла
func RecordCycle(outcome string, durationSeconds float64) {
	CyclesTotal.WithLabelValues(outcome).Inc()
	if outcome == "completed" {
		CycleDuration.Observe(durationSeconds)
	}
}

// RecordAlertCandidate записывает сгенерированный кандидат
func RecordAlertCandidate(alertType, priority string) {
	AlertsGenerated.WithLabelValues(alertType, priority).Inc()
}

// RecordDelivery записывает исход доставки алерта
func RecordDelivery(outcome string) {
	AlertsDelivered.WithLabelValues(outcome).Inc()
}
