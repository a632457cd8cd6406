package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"riskmonitor/pkg/utils"
)

// bucketKey - ключ счётчика admission control.
// Ключ содержит только час суток (0-23), без даты: бакет "u1, 14:00"
// общий для всех дней. На практике глобальный сброс раз в час очищает
// карту раньше, чем бакет доживёт до следующих суток, поэтому
// переносов между днями не происходит. Схема ключа сохранена как есть.
type bucketKey struct {
	UserID string
	Hour   int
}

// AlertLimiter - admission control алертов
//
// Назначение:
// Ограничивает количество алертов на пользователя в часовом бакете.
// Admit инкрементирует счётчик и разрешает, пока счётчик ниже лимита;
// при достижении лимита отказывает, не меняя счётчик. Отказ - не
// ошибка, а штатный исход admission control.
//
// Отдельный таймер очищает ВСЮ карту счётчиков раз в resetEvery -
// глобальный сброс, не скользящее окно и не per-key TTL.
type AlertLimiter struct {
	mu     sync.Mutex
	counts map[bucketKey]int

	maxPerBucket int
	resetEvery   time.Duration

	stop     chan struct{}
	stopOnce sync.Once

	logger *zap.Logger

	// для тестов
	now func() time.Time
}

// NewAlertLimiter создаёт limiter с лимитом maxPerBucket на (user, час)
func NewAlertLimiter(maxPerBucket int, resetEvery time.Duration, logger *zap.Logger) *AlertLimiter {
	if maxPerBucket < 1 {
		maxPerBucket = 1
	}
	if resetEvery <= 0 {
		resetEvery = time.Hour
	}

	return &AlertLimiter{
		counts:       make(map[bucketKey]int),
		maxPerBucket: maxPerBucket,
		resetEvery:   resetEvery,
		stop:         make(chan struct{}),
		logger:       logger,
		now:          time.Now,
	}
}

// Admit решает, допустить ли очередной алерт пользователя
func (l *AlertLimiter) Admit(userID string) bool {
	key := bucketKey{UserID: userID, Hour: utils.HourOfDay(l.now())}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts[key] >= l.maxPerBucket {
		return false
	}
	l.counts[key]++
	return true
}

// Reset очищает все счётчики
func (l *AlertLimiter) Reset() {
	l.mu.Lock()
	cleared := len(l.counts)
	l.counts = make(map[bucketKey]int)
	l.mu.Unlock()

	if cleared > 0 {
		l.logger.Debug("alert limiter reset", zap.Int("buckets_cleared", cleared))
	}
}

// Start запускает таймер глобального сброса счётчиков
func (l *AlertLimiter) Start() {
	go func() {
		ticker := time.NewTicker(l.resetEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Reset()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop останавливает таймер сброса; повторные вызовы безопасны
func (l *AlertLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}
