package monitor

import (
	"context"
	"errors"
	"sync"

	"riskmonitor/internal/models"
)

// ============================================================
// Стабы коллабораторов движка
// ============================================================

type stubTradeStore struct {
	trades []*models.TradeRecord
	err    error
}

func (s *stubTradeStore) GetRecentByUser(userID string, limit int) ([]*models.TradeRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.trades) > limit {
		return s.trades[:limit], nil
	}
	return s.trades, nil
}

type stubProfileStore struct {
	profile *models.RiskProfile
	err     error
}

func (s *stubProfileStore) GetByUserID(userID string) (*models.RiskProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

type stubAlertStore struct {
	mu     sync.Mutex
	alerts []*models.Alert
	err    error
}

func (s *stubAlertStore) Create(alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *stubAlertStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

type stubMarket struct {
	spreads map[string]float64
	errs    map[string]error
}

func (s *stubMarket) Spread(ctx context.Context, symbol string) (float64, error) {
	if err, ok := s.errs[symbol]; ok {
		return 0, err
	}
	spread, ok := s.spreads[symbol]
	if !ok {
		return 0, errors.New("unknown symbol")
	}
	return spread, nil
}

type stubFeed struct {
	healthy bool
	calls   int
}

func (s *stubFeed) HealthCheck(ctx context.Context) bool {
	s.calls++
	return s.healthy
}

// memoryChannel - PushChannel в памяти для тестов
type memoryChannel struct {
	mu     sync.Mutex
	events [][]byte
	closed bool

	sendErr error
}

func newMemoryChannel() *memoryChannel {
	return &memoryChannel{}
}

func (c *memoryChannel) Send(event []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	buf := make([]byte, len(event))
	copy(buf, event)
	c.events = append(c.events, buf)
	return nil
}

func (c *memoryChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *memoryChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *memoryChannel) eventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// eventTypes декодирует типы всех полученных событий
func (c *memoryChannel) eventTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.events))
	for _, raw := range c.events {
		var ev Event
		if err := json.Unmarshal(raw, &ev); err == nil {
			types = append(types, ev.Type)
		}
	}
	return types
}
