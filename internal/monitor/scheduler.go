package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler - периодический цикл оценки рисков
//
// Назначение:
// Каждые interval запускает один проход по всем подписанным
// пользователям: health gate upstream feed'а, последовательная
// оценка rule engine'ом, отправка кандидатов в Dispatcher.
//
// Циклы не накладываются: если предыдущий проход ещё не завершился,
// очередной тик пропускается (флаг cycleInProgress). Деградация
// видна в метрике cycles_total{outcome="skipped_overlap"}.
//
// Ошибка оценки одного пользователя не прерывает цикл - логируется,
// и проход продолжается со следующего пользователя.
type Scheduler struct {
	registry   *Registry
	evaluator  *Evaluator
	feed       UpstreamFeed
	dispatcher *Dispatcher

	interval    time.Duration
	maxPerCycle int // лимит кандидатов на пользователя за один цикл

	running         atomic.Bool
	cycleInProgress atomic.Bool
	stop            chan struct{}
	done            chan struct{}

	logger *zap.Logger
}

// NewScheduler создаёт планировщик циклов мониторинга
func NewScheduler(registry *Registry, evaluator *Evaluator, feed UpstreamFeed, dispatcher *Dispatcher, interval time.Duration, maxPerCycle int, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if maxPerCycle < 1 {
		maxPerCycle = 5
	}

	return &Scheduler{
		registry:    registry,
		evaluator:   evaluator,
		feed:        feed,
		dispatcher:  dispatcher,
		interval:    interval,
		maxPerCycle: maxPerCycle,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Start запускает периодические циклы; повторный вызов - no-op
func (s *Scheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	s.logger.Info("monitoring scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("max_alerts_per_cycle", s.maxPerCycle))

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runCycle(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop останавливает планировщик и дожидается завершения горутины.
// Начатый цикл дорабатывает до конца.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stop)
	<-s.done
	s.logger.Info("monitoring scheduler stopped")
}

// Running сообщает, запущен ли планировщик
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// runCycle выполняет один проход оценки по всем подписанным пользователям
func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.cycleInProgress.CompareAndSwap(false, true) {
		RecordCycle("skipped_overlap", 0)
		s.logger.Warn("monitoring cycle overrun, tick skipped")
		return
	}
	defer s.cycleInProgress.Store(false)

	users := s.registry.Users()
	if len(users) == 0 {
		RecordCycle("skipped_empty", 0)
		return
	}

	if !s.feed.HealthCheck(ctx) {
		UpstreamHealthy.Set(0)
		RecordCycle("skipped_unhealthy", 0)
		s.logger.Warn("upstream feed unhealthy, cycle skipped",
			zap.Int("subscribed_users", len(users)))
		return
	}
	UpstreamHealthy.Set(1)

	started := time.Now()
	for _, userID := range users {
		alerts, err := s.evaluator.EvaluateUser(ctx, userID)
		if err != nil {
			UserEvaluationErrors.Inc()
			s.logger.Error("user evaluation failed",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}

		// Кандидаты сверх лимита цикла отбрасываются до admission
		// control - они не расходуют часовой бюджет пользователя
		if len(alerts) > s.maxPerCycle {
			s.logger.Debug("per-cycle alert cap applied",
				zap.String("user_id", userID),
				zap.Int("produced", len(alerts)),
				zap.Int("cap", s.maxPerCycle))
			alerts = alerts[:s.maxPerCycle]
		}

		for _, alert := range alerts {
			s.dispatcher.Send(alert)
		}
	}

	elapsed := time.Since(started)
	RecordCycle("completed", elapsed.Seconds())
	if elapsed > s.interval {
		s.logger.Warn("monitoring cycle exceeded interval",
			zap.Duration("elapsed", elapsed),
			zap.Duration("interval", s.interval))
	}
}
