package models

import (
	"strings"
	"time"
)

// DateLayout: формат дат, который вводят пользователи (ДД.ММ.РРРР).
const DateLayout = "02.01.2006"

// ParseDate разбирает дату из сообщения в зоне loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Day отбрасывает время суток, оставляя календарную дату в зоне t.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func FormatDate(t time.Time) string { return t.Format(DateLayout) }
