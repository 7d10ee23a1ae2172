// Package daypart maps clock strings to coarse time-of-day buckets.
package daypart

import (
	"strconv"
	"strings"

	model "github.com/okian/hangout/internal/domain/model"
)

// Bucket boundaries in minutes since midnight. Intervals are half-open.
const (
	morningStart   = 5 * 60
	afternoonStart = 12 * 60
	eveningStart   = 17 * 60
	nightStart     = 21 * 60
)

// Classify returns the bucket for an "HH:MM" clock string.
// A string that is not a valid 24-hour clock, including out-of-range
// values such as "03:99" or "24:00", yields DaypartUndetermined.
func Classify(clock string) model.Daypart {
	minutes, ok := parseClock(clock)
	if !ok {
		return model.DaypartUndetermined
	}
	return FromMinutes(minutes)
}

// FromMinutes returns the bucket for a minute-of-day value.
func FromMinutes(minutes int) model.Daypart {
	switch {
	case minutes >= morningStart && minutes < afternoonStart:
		return model.DaypartMorning
	case minutes >= afternoonStart && minutes < eveningStart:
		return model.DaypartAfternoon
	case minutes >= eveningStart && minutes < nightStart:
		return model.DaypartEvening
	default:
		return model.DaypartNight
	}
}

// Parse validates a requested time-of-day value. The four buckets and
// "whole-day" are accepted; anything else reports false.
func Parse(s string) (model.Daypart, bool) {
	d := model.Daypart(strings.ToLower(strings.TrimSpace(s)))
	if d.IsBucket() || d == model.DaypartWholeDay {
		return d, true
	}
	return model.DaypartUndetermined, false
}

func parseClock(clock string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(clock), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
