package services

import (
	"fmt"
	"strings"
	"time"
)

const (
	matchDateLayout = "2006-01-02"
	matchTimeLayout = "15:04"
)

// ParseMatchTime собирает момент матча из даты и времени в часовом поясе приложения.
func ParseMatchTime(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	verr := newValidationError()
	if _, err := time.Parse(matchDateLayout, date); err != nil {
		verr.Add("date", "must be in YYYY-MM-DD format")
	}
	// "15:04" принимает и "9:05", требуем ровно HH:MM.
	if _, err := time.Parse(matchTimeLayout, clock); err != nil || len(clock) != len(matchTimeLayout) {
		verr.Add("time", "must be in HH:MM format")
	}
	if err := verr.OrNil(); err != nil {
		return time.Time{}, err
	}

	t, err := time.ParseInLocation(matchDateLayout+" "+matchTimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse match time: %w", err)
	}
	return t, nil
}

// FormatMatchTime - обратное преобразование для форм и шаблонов.
func FormatMatchTime(t time.Time, loc *time.Location) (date, clock string) {
	local := t.In(loc)
	return local.Format(matchDateLayout), local.Format(matchTimeLayout)
}

// localDay - календарный день матча в часовом поясе приложения.
func localDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(matchDateLayout)
}
