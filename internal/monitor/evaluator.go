package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"riskmonitor/internal/models"
	"riskmonitor/internal/repository"
	"riskmonitor/pkg/utils"
)

// Фиксированные пороги правил, не зависящие от риск-профиля
const (
	// Множитель эвристики leverage: avg(volume) * 100.
	// Это не реальный маржинальный расчёт, а грубая оценка по объёму.
	leverageMultiplier = 100.0

	// Минимальный win rate, ниже которого сочетание с большой
	// экспозицией считается опасным
	riskWinRateFloor = 30.0

	// Суммарная экспозиция в лотах, выше которой низкий win rate
	// генерирует risk_warning
	riskExposureCeiling = 5.0
)

// Evaluator - rule engine движка мониторинга
//
// Назначение:
// Для одного пользователя за один вызов выполняет четыре независимые
// проверки: drawdown, leverage, волатильность по символам, risk warning.
// Все проверки - чистые функции от (сделки, профиль, спреды);
// Evaluator не решает вопросы admission control и доставки,
// он только производит кандидатов.
type Evaluator struct {
	trades   TradeStore
	profiles ProfileStore
	market   MarketData

	volatilityThreshold float64 // относительный спред, выше которого - spike
	tradeFetchLimit     int     // сколько последних сделок анализируем

	logger *zap.Logger
}

// NewEvaluator создаёт rule engine
func NewEvaluator(trades TradeStore, profiles ProfileStore, market MarketData, volatilityThreshold float64, tradeFetchLimit int, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		trades:              trades,
		profiles:            profiles,
		market:              market,
		volatilityThreshold: volatilityThreshold,
		tradeFetchLimit:     tradeFetchLimit,
		logger:              logger,
	}
}

// EvaluateUser выполняет все проверки для одного пользователя
//
// Возвращает кандидатов в порядке производства:
// drawdown, leverage, volatility (по символам), risk warning.
// Пользователь без риск-профиля или без сделок - не ошибка,
// просто нет кандидатов.
func (e *Evaluator) EvaluateUser(ctx context.Context, userID string) ([]*models.Alert, error) {
	profile, err := e.profiles.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch risk profile: %w", err)
	}

	trades, err := e.trades.GetRecentByUser(userID, e.tradeFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}
	if len(trades) == 0 {
		return nil, nil
	}

	var alerts []*models.Alert

	if alert := checkDrawdown(userID, trades, profile); alert != nil {
		alerts = append(alerts, alert)
	}
	if alert := checkLeverage(userID, trades, profile); alert != nil {
		alerts = append(alerts, alert)
	}
	alerts = append(alerts, e.checkVolatility(ctx, userID, trades)...)
	if alert := checkRiskWarning(userID, trades); alert != nil {
		alerts = append(alerts, alert)
	}

	for _, alert := range alerts {
		RecordAlertCandidate(alert.Type, alert.Priority)
	}

	return alerts, nil
}

// CurrentDrawdown вычисляет текущую просадку в процентах
//
// Сделки обрабатываются в хронологическом порядке. Накопленный
// результат ведётся от текущего пика: прибыльная сделка поднимает пик,
// убыточная измеряется от него. Просадка = (peak - current) / peak * 100;
// при неположительном пике просадка равна нулю (не бывает отрицательной).
func CurrentDrawdown(trades []*models.TradeRecord) float64 {
	sorted := make([]*models.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TradeTime.Before(sorted[j].TradeTime)
	})

	var peak, current float64
	for _, t := range sorted {
		current = peak + t.Profit
		if current > peak {
			peak = current
		}
	}

	return utils.ChangePercent(peak, current)
}

// checkDrawdown - проверка просадки относительно лимита профиля
func checkDrawdown(userID string, trades []*models.TradeRecord, profile *models.RiskProfile) *models.Alert {
	drawdown := CurrentDrawdown(trades)
	if drawdown <= profile.MaxDrawdown {
		return nil
	}

	value := utils.RoundToDecimals(drawdown, 2)
	return &models.Alert{
		UserID:    userID,
		Type:      models.AlertTypeDrawdownViolation,
		Message:   fmt.Sprintf("Drawdown %.2f%% exceeds limit %.2f%%", value, profile.MaxDrawdown),
		Value:     value,
		Threshold: profile.MaxDrawdown,
		Priority:  models.PriorityHigh,
		Timestamp: time.Now().UTC(),
	}
}

// checkLeverage - эвристическая оценка плеча по среднему объёму
func checkLeverage(userID string, trades []*models.TradeRecord, profile *models.RiskProfile) *models.Alert {
	volumes := make([]float64, len(trades))
	for i, t := range trades {
		volumes[i] = t.Volume
	}

	estimated := utils.Average(volumes) * leverageMultiplier
	if estimated <= profile.MaxLeverage {
		return nil
	}

	value := utils.RoundToDecimals(estimated, 2)
	return &models.Alert{
		UserID:    userID,
		Type:      models.AlertTypeLeverageWarning,
		Message:   fmt.Sprintf("Estimated leverage %.2f exceeds limit %.2f", value, profile.MaxLeverage),
		Value:     value,
		Threshold: profile.MaxLeverage,
		Priority:  models.PriorityMedium,
		Timestamp: time.Now().UTC(),
	}
}

// checkVolatility - проверка спредов по всем символам пользователя
//
// По одному алерту на символ с превышением порога. Недоступность
// данных по символу - штатная ситуация: символ молча пропускается,
// остальные проверяются.
func (e *Evaluator) checkVolatility(ctx context.Context, userID string, trades []*models.TradeRecord) []*models.Alert {
	symbols := distinctSymbols(trades)

	var alerts []*models.Alert
	for _, symbol := range symbols {
		spread, err := e.market.Spread(ctx, symbol)
		if err != nil {
			e.logger.Debug("spread lookup skipped",
				zap.String("user_id", userID),
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}

		if spread <= e.volatilityThreshold {
			continue
		}

		value := utils.RoundToDecimals(spread, 4)
		alerts = append(alerts, &models.Alert{
			UserID:    userID,
			Type:      models.AlertTypeVolatilitySpike,
			Symbol:    symbol,
			Message:   fmt.Sprintf("Volatility spike on %s: spread %.4f exceeds %.4f", symbol, value, e.volatilityThreshold),
			Value:     value,
			Threshold: e.volatilityThreshold,
			Priority:  models.PriorityMedium,
			Timestamp: time.Now().UTC(),
		})
	}

	return alerts
}

// checkRiskWarning - низкий win rate при большой экспозиции
func checkRiskWarning(userID string, trades []*models.TradeRecord) *models.Alert {
	var wins int
	var exposure float64
	for _, t := range trades {
		if t.Profit > 0 {
			wins++
		}
		if t.Volume < 0 {
			exposure -= t.Volume
		} else {
			exposure += t.Volume
		}
	}

	winRate := float64(wins) / float64(len(trades)) * 100
	if winRate >= riskWinRateFloor || exposure <= riskExposureCeiling {
		return nil
	}

	value := utils.RoundToDecimals(winRate, 2)
	return &models.Alert{
		UserID:    userID,
		Type:      models.AlertTypeRiskWarning,
		Message:   fmt.Sprintf("Win rate %.2f%% with total exposure %.2f lots", value, exposure),
		Value:     value,
		Threshold: riskWinRateFloor,
		Priority:  models.PriorityHigh,
		Timestamp: time.Now().UTC(),
	}
}

// distinctSymbols возвращает уникальные символы в порядке первого появления
func distinctSymbols(trades []*models.TradeRecord) []string {
	seen := make(map[string]bool, len(trades))
	symbols := make([]string, 0, len(trades))
	for _, t := range trades {
		if t.Symbol == "" || seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true
		symbols = append(symbols, t.Symbol)
	}
	return symbols
}
