package models

import "time"

// TradeRecord представляет закрытую сделку пользователя.
//
// Формат полей соответствует истории сделок MT5 bridge
// (deal ticket, направление, объём, цена, комиссия, своп, профит).
// Движок мониторинга читает сделки только для числовой агрегации
// и никогда их не изменяет.
type TradeRecord struct {
	ID         int       `json:"id" db:"id"`
	Ticket     int64     `json:"ticket" db:"ticket"`
	UserID     string    `json:"user_id" db:"user_id"`
	Symbol     string    `json:"symbol" db:"symbol"`
	Type       string    `json:"type" db:"type"` // BUY или SELL
	Volume     float64   `json:"volume" db:"volume"`
	Price      float64   `json:"price" db:"price"`
	Profit     float64   `json:"profit" db:"profit"`
	Commission float64   `json:"commission" db:"commission"`
	Swap       float64   `json:"swap" db:"swap"`
	TradeTime  time.Time `json:"trade_time" db:"trade_time"`
}

// Направления сделок
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)
