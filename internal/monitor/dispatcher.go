package monitor

import (
	"go.uber.org/zap"

	"riskmonitor/internal/models"
)

// Dispatcher - конвейер доставки алертов
//
// Назначение:
// Единственный путь алерта от rule engine к пользователю:
// admission control -> персистентность -> live push.
//
// Порядок шагов фиксирован:
// 1. Отказ limiter'а - алерт не персистится и не доставляется.
//    Это не ошибка, в лог не пишется как failure.
// 2. Ошибка записи в БД - алерт логируется и отбрасывается,
//    доставка НЕ выполняется (недоставленный, но записанный алерт
//    лучше доставленного, но потерянного - наоборот нет).
// 3. Push только при активной подписке; её отсутствие - штатный
//    случай, алерт остаётся доступным через хранилище.
type Dispatcher struct {
	limiter  *AlertLimiter
	store    AlertStore
	registry *Registry
	logger   *zap.Logger
}

// NewDispatcher создаёт конвейер доставки
func NewDispatcher(limiter *AlertLimiter, store AlertStore, registry *Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		limiter:  limiter,
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// Send проводит один алерт через конвейер admission -> persist -> push
func (d *Dispatcher) Send(alert *models.Alert) {
	if !d.limiter.Admit(alert.UserID) {
		AlertsRateLimited.Inc()
		d.logger.Debug("alert rate limited",
			zap.String("user_id", alert.UserID),
			zap.String("type", alert.Type))
		return
	}

	if err := d.store.Create(alert); err != nil {
		AlertsPersistFailed.Inc()
		d.logger.Error("failed to persist alert",
			zap.String("user_id", alert.UserID),
			zap.String("type", alert.Type),
			zap.Error(err))
		return
	}

	channel, ok := d.registry.Channel(alert.UserID)
	if !ok {
		RecordDelivery("no_subscriber")
		return
	}

	event, err := EncodeAlert(alert)
	if err != nil {
		RecordDelivery("push_failed")
		d.logger.Error("failed to encode alert event",
			zap.String("user_id", alert.UserID), zap.Error(err))
		return
	}

	if err := channel.Send(event); err != nil {
		RecordDelivery("push_failed")
		d.logger.Warn("failed to push alert",
			zap.String("user_id", alert.UserID),
			zap.String("type", alert.Type),
			zap.Error(err))
		return
	}

	RecordDelivery("pushed")
	d.logger.Info("alert dispatched",
		zap.String("user_id", alert.UserID),
		zap.String("type", alert.Type),
		zap.String("priority", alert.Priority))
}
