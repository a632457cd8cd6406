package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		burst     float64
		wantRate  float64
		wantBurst float64
	}{
		{"нулевой rate - дефолт", 0, 0, 10, 20},
		{"burst меньше rate - поднимается до rate", 10, 5, 10, 10},
		{"валидные значения", 20, 40, 20, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.rate, tt.burst)
			if rl.rate != tt.wantRate {
				t.Errorf("rate = %v, want %v", rl.rate, tt.wantRate)
			}
			if rl.burst != tt.wantBurst {
				t.Errorf("burst = %v, want %v", rl.burst, tt.wantBurst)
			}
		})
	}
}

func TestRateLimiter_AllowBurst(t *testing.T) {
	rl := NewRateLimiter(1, 5)

	// Полное ведро - 5 запросов проходят сразу
	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatalf("запрос %d должен пройти (burst=5)", i+1)
		}
	}

	// Ведро пусто
	if rl.Allow() {
		t.Error("6-й запрос не должен пройти при пустом ведре")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(100, 1)

	if !rl.Allow() {
		t.Fatal("первый запрос должен пройти")
	}
	if rl.Allow() {
		t.Fatal("второй запрос не должен пройти сразу")
	}

	// 100 токенов/сек: через 50ms должно накопиться ~5 токенов (cap=1)
	time.Sleep(50 * time.Millisecond)
	if !rl.Allow() {
		t.Error("после паузы токен должен восстановиться")
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(0.001, 1) // практически без пополнения
	rl.Allow()                     // опустошаем ведро

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Wait должен вернуть DeadlineExceeded, получили %v", err)
	}
}
