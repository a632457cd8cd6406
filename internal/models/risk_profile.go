package models

import "time"

// RiskProfile - риск-профиль пользователя.
//
// Задаёт индивидуальные лимиты, против которых Evaluator проверяет
// торговую активность. Профиль создаётся и редактируется основной
// платформой; движок мониторинга читает его и никогда не изменяет.
// Отсутствие профиля означает, что пользователь пропускается в цикле.
type RiskProfile struct {
	UserID        string    `json:"user_id" db:"user_id"`
	MaxLeverage   float64   `json:"max_leverage" db:"max_leverage"`     // максимально допустимое плечо
	MaxDrawdown   float64   `json:"max_drawdown" db:"max_drawdown"`     // максимальная просадка в процентах
	RiskTolerance string    `json:"risk_tolerance" db:"risk_tolerance"` // conservative, moderate, aggressive
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Уровни риск-толерантности
const (
	RiskToleranceConservative = "conservative"
	RiskToleranceModerate     = "moderate"
	RiskToleranceAggressive   = "aggressive"
)
