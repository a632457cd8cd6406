package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// subscription - одна активная подписка на live-алерты
type subscription struct {
	userID        string
	channel       PushChannel
	lastHeartbeat time.Time

	// Закрывается при удалении подписки из реестра - немедленно
	// останавливает heartbeat горутину без ожидания следующего тика
	stopHeartbeat chan struct{}
}

// RegistryConfig - настройки реестра подписок
type RegistryConfig struct {
	HeartbeatInterval time.Duration // период heartbeat по каждой подписке
	SweepInterval     time.Duration // период проверки здоровья соединений
	ConnectionTimeout time.Duration // порог eviction: now - lastHeartbeat
}

// Registry - реестр активных подписок
//
// Назначение:
// Владеет жизненным циклом подписок: регистрация с заменой предыдущей,
// per-subscription heartbeat, явная отписка и eviction мёртвых
// соединений sweeper'ом. Карта подписок защищена мьютексом - циклы
// планировщика, heartbeat'ы и sweep работают из разных горутин.
//
// Порядок итерации Users() - порядок подписки (FIFO), чтобы цикл
// оценки обходил пользователей детерминированно.
type Registry struct {
	mu    sync.Mutex
	subs  map[string]*subscription
	order []string

	cfg RegistryConfig

	stop     chan struct{}
	stopOnce sync.Once

	logger *zap.Logger

	// для тестов
	now func() time.Time
}

// NewRegistry создаёт реестр подписок
func NewRegistry(cfg RegistryConfig, logger *zap.Logger) *Registry {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = 120 * time.Second
	}

	return &Registry{
		subs:   make(map[string]*subscription),
		order:  make([]string, 0),
		cfg:    cfg,
		stop:   make(chan struct{}),
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe регистрирует канал live-доставки для пользователя
//
// Повторная подписка того же пользователя заменяет предыдущую:
// в реестре всегда не больше одной записи на userID. Старый канал
// при замене явно закрывается - его heartbeat останавливается,
// транспорт освобождает ресурсы.
//
// Сразу после регистрации в канал отправляется событие connected.
func (r *Registry) Subscribe(userID string, channel PushChannel) {
	now := r.now()
	sub := &subscription{
		userID:        userID,
		channel:       channel,
		lastHeartbeat: now,
		stopHeartbeat: make(chan struct{}),
	}

	r.mu.Lock()
	if old, ok := r.subs[userID]; ok {
		close(old.stopHeartbeat)
		if err := old.channel.Close(); err != nil {
			r.logger.Debug("failed to close replaced channel",
				zap.String("user_id", userID), zap.Error(err))
		}
		r.removeFromOrder(userID)
		r.logger.Info("subscription replaced", zap.String("user_id", userID))
	}
	r.subs[userID] = sub
	r.order = append(r.order, userID)
	total := len(r.subs)
	r.mu.Unlock()

	ActiveSubscriptions.Set(float64(total))
	r.logger.Info("user subscribed",
		zap.String("user_id", userID),
		zap.Int("active_subscriptions", total))

	if event, err := EncodeConnected(userID, now); err == nil {
		if err := channel.Send(event); err != nil {
			r.logger.Warn("failed to send connected event",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	go r.heartbeatLoop(sub)
}

// Unsubscribe удаляет подписку и закрывает её канал
//
// Возвращает false, если подписки не было. Вызывается при явной
// отписке и sweeper'ом.
func (r *Registry) Unsubscribe(userID string) bool {
	return r.remove(userID, nil)
}

// UnsubscribeChannel удаляет подписку, только если она всё ещё
// привязана к указанному каналу
//
// Вызывается транспортом при разрыве соединения: к этому моменту
// пользователь мог переподписаться, и запись в реестре принадлежит
// уже новому каналу - teardown старого соединения не должен её трогать.
func (r *Registry) UnsubscribeChannel(userID string, channel PushChannel) bool {
	return r.remove(userID, channel)
}

// remove удаляет подписку из реестра. При ненулевом channel запись
// удаляется только если она всё ещё привязана к этому каналу.
func (r *Registry) remove(userID string, channel PushChannel) bool {
	r.mu.Lock()
	sub, ok := r.subs[userID]
	if !ok || (channel != nil && sub.channel != channel) {
		r.mu.Unlock()
		return false
	}
	delete(r.subs, userID)
	r.removeFromOrder(userID)
	close(sub.stopHeartbeat)
	total := len(r.subs)
	r.mu.Unlock()

	if err := sub.channel.Close(); err != nil {
		r.logger.Debug("failed to close channel",
			zap.String("user_id", userID), zap.Error(err))
	}

	ActiveSubscriptions.Set(float64(total))
	r.logger.Info("user unsubscribed",
		zap.String("user_id", userID),
		zap.Int("active_subscriptions", total))
	return true
}

// Count возвращает количество активных подписок
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Users возвращает userID активных подписок в порядке подписки
func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]string, len(r.order))
	copy(users, r.order)
	return users
}

// Channel возвращает live-канал пользователя, если подписка активна
func (r *Registry) Channel(userID string) (PushChannel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[userID]
	if !ok {
		return nil, false
	}
	return sub.channel, true
}

// StartSweeper запускает health monitor соединений
//
// Каждые SweepInterval реестр проверяется на подписки без heartbeat
// дольше ConnectionTimeout - такие принудительно отписываются.
// Это единственный механизм очистки соединений, чей транспорт
// умер без сигнала закрытия.
func (r *Registry) StartSweeper() {
	go func() {
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop останавливает sweeper и закрывает все подписки
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})

	for _, userID := range r.Users() {
		r.Unsubscribe(userID)
	}
}

// sweep выбрасывает подписки с протухшим heartbeat
func (r *Registry) sweep() {
	now := r.now()

	r.mu.Lock()
	var stale []string
	for userID, sub := range r.subs {
		if now.Sub(sub.lastHeartbeat) > r.cfg.ConnectionTimeout {
			stale = append(stale, userID)
		}
	}
	r.mu.Unlock()

	for _, userID := range stale {
		if r.Unsubscribe(userID) {
			SubscriptionsEvicted.Inc()
			r.logger.Warn("stale subscription evicted",
				zap.String("user_id", userID),
				zap.Duration("timeout", r.cfg.ConnectionTimeout))
		}
	}
}

// heartbeatLoop периодически отправляет heartbeat по одной подписке
//
// Горутина живёт, пока реестр содержит именно эту подписку: после
// отписки или замены она завершается - либо немедленно по
// stopHeartbeat, либо на следующем тике по проверке identity.
func (r *Registry) heartbeatLoop(sub *subscription) {
	ticker := time.NewTicker(r.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			current, ok := r.subs[sub.userID]
			if !ok || current != sub {
				r.mu.Unlock()
				return
			}
			r.mu.Unlock()

			event, err := EncodeHeartbeat(r.now())
			if err != nil {
				continue
			}

			if err := sub.channel.Send(event); err != nil {
				// Не трогаем lastHeartbeat: мёртвый транспорт
				// доживёт до eviction sweeper'ом
				HeartbeatsSent.WithLabelValues("failed").Inc()
				r.logger.Debug("heartbeat send failed",
					zap.String("user_id", sub.userID), zap.Error(err))
				continue
			}

			HeartbeatsSent.WithLabelValues("sent").Inc()
			r.mu.Lock()
			if current, ok := r.subs[sub.userID]; ok && current == sub {
				sub.lastHeartbeat = r.now()
			}
			r.mu.Unlock()

		case <-sub.stopHeartbeat:
			return
		}
	}
}

// removeFromOrder удаляет userID из среза порядка; вызывать под мьютексом
func (r *Registry) removeFromOrder(userID string) {
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
