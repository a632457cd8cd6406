package monitor

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"riskmonitor/internal/models"
)

// events.go - framing push-протокола
//
// Каждое событие - JSON объект {type, data}, доставляемый одним
// сообщением по долгоживущему одностороннему каналу пользователя.
// Типы событий:
// - connected: подтверждение подписки (сразу после subscribe)
// - alert: новый риск-алерт
// - heartbeat: периодическое подтверждение живости канала

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Типы push-событий
const (
	EventTypeConnected = "connected"
	EventTypeAlert     = "alert"
	EventTypeHeartbeat = "heartbeat"
)

// Event - базовая структура push-события
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ConnectedData - payload события connected
type ConnectedData struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HeartbeatData - payload события heartbeat
type HeartbeatData struct {
	Timestamp time.Time `json:"timestamp"`
}

// EncodeConnected кодирует событие подтверждения подписки
func EncodeConnected(userID string, ts time.Time) ([]byte, error) {
	return json.Marshal(&Event{
		Type: EventTypeConnected,
		Data: &ConnectedData{UserID: userID, Timestamp: ts},
	})
}

// EncodeAlert кодирует событие нового алерта
func EncodeAlert(alert *models.Alert) ([]byte, error) {
	return json.Marshal(&Event{
		Type: EventTypeAlert,
		Data: alert,
	})
}

// EncodeHeartbeat кодирует heartbeat событие
func EncodeHeartbeat(ts time.Time) ([]byte, error) {
	return json.Marshal(&Event{
		Type: EventTypeHeartbeat,
		Data: &HeartbeatData{Timestamp: ts},
	})
}
