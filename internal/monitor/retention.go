package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// AlertJanitor - очистка журнала алертов по возрасту
type AlertJanitor interface {
	DeleteOlderThan(olderThan time.Time) (int64, error)
}

// Retention - фоновая очистка журнала алертов
//
// Назначение:
// Журнал алертов append-only: алерт никогда не изменяется и не
// удаляется по запросу. Единственный механизм уборки - периодическое
// удаление записей старше retention окна.
type Retention struct {
	store AlertJanitor

	maxAge        time.Duration // возраст, после которого алерт удаляется
	sweepInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once

	logger *zap.Logger

	// для тестов
	now func() time.Time
}

// NewRetention создаёт уборщик журнала алертов
func NewRetention(store AlertJanitor, maxAge, sweepInterval time.Duration, logger *zap.Logger) *Retention {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	if sweepInterval <= 0 {
		sweepInterval = 12 * time.Hour
	}

	return &Retention{
		store:         store,
		maxAge:        maxAge,
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
		logger:        logger,
		now:           time.Now,
	}
}

// Start запускает периодическую уборку
func (r *Retention) Start() {
	go func() {
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.sweepOnce()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop останавливает уборку; повторные вызовы безопасны
func (r *Retention) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// sweepOnce удаляет алерты старше retention окна
func (r *Retention) sweepOnce() {
	cutoff := r.now().Add(-r.maxAge)

	deleted, err := r.store.DeleteOlderThan(cutoff)
	if err != nil {
		r.logger.Error("alert retention sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		r.logger.Info("old alerts removed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
