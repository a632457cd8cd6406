package utils

import (
	"math"
	"testing"
)

// ============================================================
// RoundToDecimals Tests
// ============================================================

func TestRoundToDecimals(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     float64
	}{
		{"округление вверх", 61.5384, 2, 61.54},
		{"округление вниз", 61.5344, 2, 61.53},
		{"половина вверх", 0.125, 2, 0.13},
		{"целое значение", 100, 2, 100},
		{"ноль знаков", 61.54, 0, 62},
		{"отрицательное значение", -50.005, 2, -50.0},
		{"отрицательные знаки - без изменений", 61.5384, -1, 61.5384},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundToDecimals(tt.value, tt.decimals)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RoundToDecimals(%v, %d) = %v, want %v", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

// ============================================================
// ChangePercent Tests
// ============================================================

func TestChangePercent(t *testing.T) {
	tests := []struct {
		name  string
		base  float64
		value float64
		want  float64
	}{
		{"падение на 50%", 100, 50, 50},
		{"без изменений", 130, 130, 0},
		{"рост выше базы - отрицательный", 100, 130, -30},
		{"нулевая база", 0, 50, 0},
		{"отрицательная база", -10, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChangePercent(tt.base, tt.value)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ChangePercent(%v, %v) = %v, want %v", tt.base, tt.value, got, tt.want)
			}
		})
	}
}

// ============================================================
// Average Tests
// ============================================================

func TestAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"пустой срез", nil, 0},
		{"одно значение", []float64{1.5}, 1.5},
		{"несколько значений", []float64{1, 2, 3, 4}, 2.5},
		{"отрицательные значения", []float64{-1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Average(tt.values)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Average(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
