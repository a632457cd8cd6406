package utils

import "time"

// HourOfDay возвращает час суток (0-23) для указанного времени в UTC.
//
// Используется как часть ключа бакета rate limiter'а: лимит алертов
// считается на пару (user, час суток).
func HourOfDay(t time.Time) int {
	return t.UTC().Hour()
}
