package models

import "time"

// Alert представляет риск-уведомление, созданное движком мониторинга.
//
// Создаётся Evaluator'ом при нарушении порогов риск-профиля,
// неизменяем после создания. Персистится ровно один раз, если
// прошёл admission control (rate limiter).
type Alert struct {
	ID        int       `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`                       // risk_warning, drawdown_violation, volatility_spike, leverage_warning, test
	Symbol    string    `json:"symbol,omitempty" db:"symbol"`         // заполнен только для volatility_spike
	Message   string    `json:"message" db:"message"`
	Value     float64   `json:"value" db:"value"`                     // фактическое значение метрики
	Threshold float64   `json:"threshold" db:"threshold"`             // порог, который был превышен
	Priority  string    `json:"priority" db:"priority"`               // low, medium, high
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Типы алертов
const (
	AlertTypeRiskWarning        = "risk_warning"        // низкий win rate при большой экспозиции
	AlertTypeDrawdownViolation  = "drawdown_violation"  // просадка превысила лимит профиля
	AlertTypeVolatilitySpike    = "volatility_spike"    // расширение спреда по символу
	AlertTypeLeverageWarning    = "leverage_warning"    // оценка плеча превысила лимит профиля
	AlertTypeTest               = "test"                // тестовый алерт (ручная проверка канала)
)

// Приоритеты алертов
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidAlertType проверяет, что тип алерта известен системе
func ValidAlertType(t string) bool {
	switch t {
	case AlertTypeRiskWarning, AlertTypeDrawdownViolation,
		AlertTypeVolatilitySpike, AlertTypeLeverageWarning, AlertTypeTest:
		return true
	}
	return false
}

// ValidPriority проверяет, что приоритет известен системе
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
