package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"riskmonitor/internal/models"
	"riskmonitor/internal/monitor"
)

func newTestRegistry() *monitor.Registry {
	return monitor.NewRegistry(monitor.RegistryConfig{
		HeartbeatInterval: time.Hour,
		SweepInterval:     time.Hour,
		ConnectionTimeout: 120 * time.Second,
	}, zap.NewNop())
}

func newWSServer(t *testing.T, registry *monitor.Registry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(registry, zap.NewNop(), w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user_id=" + userID
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gws.Conn) monitor.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev monitor.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

// ============================================================
// ServeWS Tests
// ============================================================

func TestServeWS_RequiresUserID(t *testing.T) {
	registry := newTestRegistry()
	srv := newWSServer(t, registry)

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("без user_id: ожидали 400, получили %d", resp.StatusCode)
	}
	if registry.Count() != 0 {
		t.Error("неудачный апгрейд не должен создавать подписку")
	}
}

func TestServeWS_SubscribesAndSendsConnected(t *testing.T) {
	registry := newTestRegistry()
	srv := newWSServer(t, registry)

	conn := dial(t, srv, "u1")

	// Первое событие - connected
	ev := readEvent(t, conn)
	if ev.Type != monitor.EventTypeConnected {
		t.Errorf("ожидали connected, получили %q", ev.Type)
	}

	if registry.Count() != 1 {
		t.Errorf("ожидали 1 подписку, получили %d", registry.Count())
	}
}

func TestServeWS_DeliversAlerts(t *testing.T) {
	registry := newTestRegistry()
	srv := newWSServer(t, registry)

	conn := dial(t, srv, "u1")
	readEvent(t, conn) // connected

	event, err := monitor.EncodeAlert(&models.Alert{
		UserID:   "u1",
		Type:     models.AlertTypeVolatilitySpike,
		Symbol:   "EURUSD",
		Priority: models.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	channel, ok := registry.Channel("u1")
	if !ok {
		t.Fatal("канал подписчика не найден")
	}
	if err := channel.Send(event); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != monitor.EventTypeAlert {
		t.Errorf("ожидали alert, получили %q", ev.Type)
	}
}

func TestServeWS_DisconnectUnsubscribes(t *testing.T) {
	registry := newTestRegistry()
	srv := newWSServer(t, registry)

	conn := dial(t, srv, "u1")
	readEvent(t, conn) // connected
	conn.Close()

	deadline := time.After(2 * time.Second)
	for registry.Count() != 0 {
		select {
		case <-deadline:
			t.Fatal("разрыв соединения должен отписывать пользователя")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestServeWS_ResubscribeReplacesConnection(t *testing.T) {
	registry := newTestRegistry()
	srv := newWSServer(t, registry)

	conn1 := dial(t, srv, "u1")
	readEvent(t, conn1) // connected

	conn2 := dial(t, srv, "u1")
	readEvent(t, conn2) // connected по новому соединению

	if registry.Count() != 1 {
		t.Errorf("переподключение: ожидали 1 подписку, получили %d", registry.Count())
	}

	// Старое соединение закрывается сервером
	conn1.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn1.ReadMessage(); err != nil {
			break
		}
	}

	// Teardown старого соединения снимает только собственную подписку:
	// новая запись в реестре должна пережить его onDisconnect
	time.Sleep(300 * time.Millisecond)
	if registry.Count() != 1 {
		t.Fatalf("после закрытия старого соединения ожидали 1 подписку, получили %d", registry.Count())
	}

	event, err := monitor.EncodeAlert(&models.Alert{
		UserID:   "u1",
		Type:     models.AlertTypeLeverageWarning,
		Priority: models.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	channel, ok := registry.Channel("u1")
	if !ok {
		t.Fatal("канал новой подписки не найден")
	}
	if err := channel.Send(event); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ev := readEvent(t, conn2); ev.Type != monitor.EventTypeAlert {
		t.Errorf("ожидали alert по новому соединению, получили %q", ev.Type)
	}
}

// ============================================================
// Client Tests
// ============================================================

func TestClientSend_AfterClose(t *testing.T) {
	c := newClient("u1", nil, nil, zap.NewNop())
	c.Close()
	c.Close() // идемпотентно

	if err := c.Send([]byte(`{}`)); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("ожидали ErrChannelClosed, получили %v", err)
	}
}

func TestClientSend_BufferFull(t *testing.T) {
	// writePump не запущен - буфер никем не вычитывается
	c := newClient("u1", nil, nil, zap.NewNop())

	var err error
	for i := 0; i <= clientSendBufferSize; i++ {
		err = c.Send([]byte(`{}`))
	}
	if !errors.Is(err, ErrBufferFull) {
		t.Errorf("ожидали ErrBufferFull, получили %v", err)
	}
}

// ============================================================
// OriginChecker Tests
// ============================================================

func TestOriginCheckerCheck(t *testing.T) {
	checker := &OriginChecker{
		allowedOrigins: map[string]struct{}{
			"https://app.example.com": {},
		},
	}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true}, // non-browser клиенты
		{"https://app.example.com", true},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		if got := checker.Check(tt.origin); got != tt.want {
			t.Errorf("Check(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOriginCheckerCheck_AllowAll(t *testing.T) {
	checker := &OriginChecker{allowAll: true}
	if !checker.Check("https://anywhere.example.com") {
		t.Error("allowAll должен пропускать любой origin")
	}
}
