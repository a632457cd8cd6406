package repository

import (
	"database/sql"
	"errors"

	"riskmonitor/internal/models"
)

// Ошибки репозитория риск-профилей
var (
	ErrProfileNotFound = errors.New("risk profile not found")
)

// ProfileRepository - чтение таблицы risk_profiles
//
// Назначение: Data Access Layer для риск-профилей.
// Профили создаются и редактируются основной платформой; движок
// мониторинга читает их при оценке пользователя.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository создает новый экземпляр репозитория
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID возвращает риск-профиль пользователя
//
// Возвращает ErrProfileNotFound, если профиль не настроен.
// Для движка это штатная ситуация: пользователь без профиля
// пропускается в цикле оценки.
func (r *ProfileRepository) GetByUserID(userID string) (*models.RiskProfile, error) {
	query := `
		SELECT user_id, max_leverage, max_drawdown, risk_tolerance, updated_at
		FROM risk_profiles
		WHERE user_id = $1`

	profile := &models.RiskProfile{}
	err := r.db.QueryRow(query, userID).Scan(
		&profile.UserID,
		&profile.MaxLeverage,
		&profile.MaxDrawdown,
		&profile.RiskTolerance,
		&profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return profile, nil
}
