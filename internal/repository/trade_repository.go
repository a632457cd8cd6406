package repository

import (
	"database/sql"

	"riskmonitor/internal/models"
)

// TradeRepository - чтение таблицы trades
//
// Назначение: Data Access Layer для истории сделок.
// Таблица наполняется сервисом синхронизации с MT5; движок мониторинга
// только читает последние сделки для числовой агрегации и никогда
// их не изменяет.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// GetRecentByUser возвращает последние сделки пользователя
//
// Сортировка по времени сделки DESC (свежие первыми). Вызывающий код
// пересортировывает по возрастанию, когда нужен хронологический проход
// (расчёт running drawdown).
func (r *TradeRepository) GetRecentByUser(userID string, limit int) ([]*models.TradeRecord, error) {
	query := `
		SELECT id, ticket, user_id, symbol, type, volume, price, profit, commission, swap, trade_time
		FROM trades
		WHERE user_id = $1
		ORDER BY trade_time DESC
		LIMIT $2`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]*models.TradeRecord, 0)
	for rows.Next() {
		trade := &models.TradeRecord{}
		err := rows.Scan(
			&trade.ID,
			&trade.Ticket,
			&trade.UserID,
			&trade.Symbol,
			&trade.Type,
			&trade.Volume,
			&trade.Price,
			&trade.Profit,
			&trade.Commission,
			&trade.Swap,
			&trade.TradeTime,
		)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}
