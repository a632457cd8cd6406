package repository

import (
	"database/sql"
	"errors"
	"time"

	"riskmonitor/internal/models"
)

// Ошибки репозитория алертов
var (
	ErrAlertNotFound = errors.New("alert not found")
)

// AlertRepository - работа с таблицей alerts
//
// Назначение: Data Access Layer для риск-алертов.
// Алерт персистится ровно один раз после прохождения admission control
// и после этого никогда не изменяется.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository создает новый экземпляр репозитория
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create сохраняет новый алерт
//
// ID и Timestamp заполняются при вставке: Timestamp берётся из алерта
// (момент создания Evaluator'ом), ID присваивается базой.
func (r *AlertRepository) Create(alert *models.Alert) error {
	query := `
		INSERT INTO alerts (user_id, type, symbol, message, value, threshold, priority, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	return r.db.QueryRow(
		query,
		alert.UserID,
		alert.Type,
		alert.Symbol,
		alert.Message,
		alert.Value,
		alert.Threshold,
		alert.Priority,
		alert.Timestamp,
	).Scan(&alert.ID)
}

// GetRecentByUser возвращает последние алерты пользователя (новые сверху)
func (r *AlertRepository) GetRecentByUser(userID string, limit int) ([]*models.Alert, error) {
	query := `
		SELECT id, user_id, type, symbol, message, value, threshold, priority, timestamp
		FROM alerts
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// CountByUser возвращает количество алертов пользователя
func (r *AlertRepository) CountByUser(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteOlderThan удаляет алерты старше указанного времени
//
// Возвращает количество удалённых записей.
// Используется для периодической очистки журнала.
func (r *AlertRepository) DeleteOlderThan(olderThan time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM alerts WHERE timestamp < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// scanAlerts читает строки результата в срез алертов
func scanAlerts(rows *sql.Rows) ([]*models.Alert, error) {
	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		alert := &models.Alert{}
		err := rows.Scan(
			&alert.ID,
			&alert.UserID,
			&alert.Type,
			&alert.Symbol,
			&alert.Message,
			&alert.Value,
			&alert.Threshold,
			&alert.Priority,
			&alert.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
