// Package websocket - транспорт live-доставки алертов поверх gorilla/websocket.
package websocket

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"riskmonitor/internal/monitor"
)

const (
	// Время ожидания записи сообщения
	writeWait = 10 * time.Second

	// Время ожидания между pong сообщениями
	pongWait = 60 * time.Second

	// Интервал отправки ping сообщений (должен быть меньше pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения: клиент нам ничего
	// содержательного не шлёт, канал односторонний
	maxMessageSize = 512

	// Размер буфера исходящих событий одного клиента
	clientSendBufferSize = 64
)

// Ошибки канала доставки
var (
	ErrChannelClosed = errors.New("push channel closed")
	ErrBufferFull    = errors.New("push buffer full")
)

// Проверка контракта live-канала на этапе компиляции
var _ monitor.PushChannel = (*Client)(nil)

// OriginChecker проверяет Origin с O(1) lookup через map
// Потокобезопасен для чтения после инициализации
type OriginChecker struct {
	allowedOrigins map[string]struct{}
	allowAll       bool
}

// originChecker - глобальный экземпляр, инициализируется один раз
var originChecker = initOriginChecker()

func initOriginChecker() *OriginChecker {
	checker := &OriginChecker{
		allowedOrigins: make(map[string]struct{}),
	}

	// Читаем из переменной окружения (comma-separated)
	// Пример: ALLOWED_ORIGINS=http://localhost:3000,https://example.com
	envOrigins := os.Getenv("ALLOWED_ORIGINS")

	if envOrigins == "" || envOrigins == "*" {
		// Development mode или явно разрешены все
		checker.allowAll = true
	} else {
		for _, origin := range strings.Split(envOrigins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				checker.allowedOrigins[origin] = struct{}{}
			}
		}
	}

	return checker
}

// Check проверяет origin за O(1)
func (oc *OriginChecker) Check(origin string) bool {
	if origin == "" {
		return true // Non-browser clients (curl, API tools)
	}
	if oc.allowAll {
		return true
	}
	_, ok := oc.allowedOrigins[origin]
	return ok
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return originChecker.Check(r.Header.Get("Origin"))
	},
	EnableCompression: true,
}

// Client - одно WebSocket соединение подписчика
//
// Назначение:
// Конкретная реализация live-канала доставки для одного пользователя.
// Реестр подписок работает с ним через интерфейс PushChannel и ничего
// не знает про WebSocket.
//
// Архитектура:
// Две горутины на соединение:
// 1. readPump - следит за закрытием со стороны клиента и pong'ами;
//    содержательных входящих сообщений протокол не предусматривает
// 2. writePump - пишет события из буфера send и шлёт ping'и
//
// Закрытие идемпотентно: Close может прийти и от реестра (отписка,
// eviction, замена), и от readPump при разрыве соединения.
type Client struct {
	userID string
	conn   *websocket.Conn

	// Буферизованный канал исходящих событий
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}

	// Вызывается один раз при закрытии со стороны транспорта
	onDisconnect func(userID string)

	logger *zap.Logger
}

// newClient создаёт клиента поверх установленного соединения
func newClient(userID string, conn *websocket.Conn, onDisconnect func(string), logger *zap.Logger) *Client {
	return &Client{
		userID:       userID,
		conn:         conn,
		send:         make(chan []byte, clientSendBufferSize),
		closed:       make(chan struct{}),
		onDisconnect: onDisconnect,
		logger:       logger,
	}
}

// Send ставит событие в очередь отправки
//
// Не блокируется: переполненный буфер означает, что клиент не
// успевает читать - событие отбрасывается с ошибкой, реестр
// рано или поздно выбросит такую подписку по heartbeat'у.
func (c *Client) Send(event []byte) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	case <-c.closed:
		return ErrChannelClosed
	default:
		return ErrBufferFull
	}
}

// Close завершает канал; повторные вызовы безопасны
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

// readPump следит за соединением со стороны клиента
//
// Завершение readPump означает разрыв транспорта: канал закрывается
// и реестр уведомляется через onDisconnect.
func (c *Client) readPump() {
	defer func() {
		c.Close()
		c.conn.Close()
		if c.onDisconnect != nil {
			c.onDisconnect(c.userID)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Канал односторонний: входящие сообщения игнорируются,
		// ReadMessage нужен ради control frames и детекта разрыва
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

// writePump отправляет события клиенту
//
// Одно событие - одно WebSocket сообщение: клиентский код парсит
// каждое сообщение как отдельный JSON объект.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				c.Close()
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// ServeWS обрабатывает подключение подписчика к /ws/alerts
//
// Идентификатор пользователя берётся из query параметра user_id.
// После апгрейда клиент регистрируется в реестре подписок - прежняя
// подписка пользователя при этом заменяется. Разрыв соединения
// снимает только собственную подписку клиента: если пользователь
// уже переподписался, teardown старого соединения запись в реестре
// не трогает.
func ServeWS(registry *monitor.Registry, logger *zap.Logger, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed",
			zap.String("user_id", userID), zap.Error(err))
		return
	}

	var client *Client
	client = newClient(userID, conn, func(id string) {
		registry.UnsubscribeChannel(id, client)
	}, logger)

	go client.writePump()
	go client.readPump()

	registry.Subscribe(userID, client)
}
