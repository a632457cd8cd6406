// Package monitor реализует движок риск-мониторинга: периодические
// циклы оценки правил по открытым подпискам, rate limiting алертов,
// персистентность и live-доставку.
package monitor

import (
	"context"

	"riskmonitor/internal/bridge"
	"riskmonitor/internal/models"
	"riskmonitor/internal/repository"
)

// TradeStore - доступ к истории сделок пользователя
type TradeStore interface {
	// GetRecentByUser возвращает последние сделки (свежие первыми)
	GetRecentByUser(userID string, limit int) ([]*models.TradeRecord, error)
}

// ProfileStore - доступ к риск-профилям
type ProfileStore interface {
	// GetByUserID возвращает профиль или repository.ErrProfileNotFound
	GetByUserID(userID string) (*models.RiskProfile, error)
}

// AlertStore - персистентность алертов
type AlertStore interface {
	Create(alert *models.Alert) error
}

// MarketData - источник рыночных данных для проверки волатильности
type MarketData interface {
	// Spread возвращает относительный спред (ask-bid)/bid по символу
	Spread(ctx context.Context, symbol string) (float64, error)
}

// UpstreamFeed - health gate цикла мониторинга
type UpstreamFeed interface {
	HealthCheck(ctx context.Context) bool
}

// PushChannel - односторонний канал live-доставки событий пользователю.
// Реализуется websocket клиентом; в тестах - буфером в памяти.
type PushChannel interface {
	// Send доставляет одно закодированное событие
	Send(event []byte) error
	// Close завершает канал; повторные вызовы безопасны
	Close() error
}

// Проверка соответствия реализаций интерфейсам на этапе компиляции
var (
	_ TradeStore   = (*repository.TradeRepository)(nil)
	_ ProfileStore = (*repository.ProfileRepository)(nil)
	_ AlertStore   = (*repository.AlertRepository)(nil)
	_ AlertJanitor = (*repository.AlertRepository)(nil)
	_ MarketData   = (*bridge.Client)(nil)
	_ UpstreamFeed = (*bridge.Client)(nil)
)
