package utils

import (
	"math"
)

// math.go - математические утилиты движка риск-мониторинга
//
// Назначение:
// Вспомогательные числовые функции для расчёта риск-метрик.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - RoundToDecimals: округление до N знаков после запятой
// - ChangePercent: процентное отклонение от базового значения
// - Average: среднее арифметическое

// RoundToDecimals округляет значение до указанного количества знаков.
//
// Используется для нормализации процентов в алертах (просадка, win rate),
// чтобы значение в сообщении и в БД совпадало с точностью до сотых.
//
// Примеры:
//   - RoundToDecimals(61.5384, 2) = 61.54
//   - RoundToDecimals(0.1250, 2) = 0.13
//   - RoundToDecimals(100, 2) = 100.0
func RoundToDecimals(value float64, decimals int) float64 {
	if decimals < 0 {
		return value
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

// ChangePercent возвращает отклонение value от base в процентах.
//
// Формула:
//
//	Отклонение (%) = ((base - value) / base) × 100
//
// Параметры:
//   - base: базовое значение (например, пик накопленного профита)
//   - value: текущее значение
//
// Возвращает:
//   - Отклонение в процентах (положительное = value ниже base)
//   - Если base <= 0, возвращает 0 (деление на ноль / бессмысленная база)
func ChangePercent(base, value float64) float64 {
	if base <= 0 {
		return 0
	}
	return (base - value) / base * 100
}

// Average возвращает среднее арифметическое значений.
//
// Для пустого среза возвращает 0.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
