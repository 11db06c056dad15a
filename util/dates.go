package util

import (
	"fmt"
	"time"

	"trip-viewer/models/trip"
)

// DATE_LAYOUT is the ISO calendar date layout used by the itinerary.
const DATE_LAYOUT = "2006-01-02"

const (
	LocaleEnglish            = "en"
	LocaleTraditionalChinese = "zh-TW"
)

var zhWeekdays = [...]string{"日", "一", "二", "三", "四", "五", "六"}

// DateFormatter renders itinerary dates for a locale. Unknown locales fall
// back to English.
type DateFormatter struct {
	locale string
}

func NewDateFormatter(locale string) *DateFormatter {
	if locale != LocaleTraditionalChinese {
		locale = LocaleEnglish
	}
	return &DateFormatter{locale: locale}
}

var defaultFormatter = NewDateFormatter(LocaleEnglish)

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DATE_LAYOUT, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// FormatDisplay renders "Month Day (Weekday)" for the formatter's locale,
// e.g. "March 28 (Friday)" or "3月28日 (週五)".
func (f *DateFormatter) FormatDisplay(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	if f.locale == LocaleTraditionalChinese {
		return fmt.Sprintf("%d月%d日 (週%s)", int(t.Month()), t.Day(), zhWeekdays[t.Weekday()]), nil
	}
	return fmt.Sprintf("%s %d (%s)", t.Month(), t.Day(), t.Weekday()), nil
}

// WeekdayOf returns the weekday name of date.
func (f *DateFormatter) WeekdayOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	if f.locale == LocaleTraditionalChinese {
		return "星期" + zhWeekdays[t.Weekday()], nil
	}
	return t.Weekday().String(), nil
}

// FormatDisplay formats date with the English formatter.
func FormatDisplay(date string) (string, error) {
	return defaultFormatter.FormatDisplay(date)
}

// WeekdayOf returns the English weekday name of date.
func WeekdayOf(date string) (string, error) {
	return defaultFormatter.WeekdayOf(date)
}

// IsToday compares the calendar date only, against the current local date.
func IsToday(date string) bool {
	return IsTodayAt(date, time.Now())
}

// IsTodayAt reports whether date is now's calendar date in now's location.
func IsTodayAt(date string, now time.Time) bool {
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	return t.Year() == y && t.Month() == m && t.Day() == d
}

// TripBounds returns the earliest and latest valid dates among days.
func TripBounds(days []trip.TripDay) (first, last time.Time, ok bool) {
	for _, day := range days {
		t, err := ParseDate(day.Date)
		if err != nil {
			continue
		}
		if !ok || t.Before(first) {
			first = t
		}
		if !ok || t.After(last) {
			last = t
		}
		ok = true
	}
	return first, last, ok
}

// CurrentTripDayIndex returns the 0-based offset of now's calendar date
// from the first trip date when now falls within [first, last], inclusive
// of the whole last day.
func CurrentTripDayIndex(days []trip.TripDay, now time.Time) (int, bool) {
	first, last, ok := TripBounds(days)
	if !ok {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if today.Before(first) || today.After(last) {
		return 0, false
	}
	return int(today.Sub(first).Hours() / 24), true
}

// IndexOfDate returns the position of the day with the given date.
func IndexOfDate(days []trip.TripDay, date string) (int, bool) {
	for i, day := range days {
		if day.Date == date {
			return i, true
		}
	}
	return 0, false
}
