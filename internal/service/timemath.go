package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/class-scheduler/internal/models"
)

// ParseClock converts "HH:MM" into minutes past midnight.
func ParseClock(value string) (int, bool) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
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

// ToMinutes is ParseClock without the flag; malformed values yield -1.
func ToMinutes(value string) int {
	minutes, ok := ParseClock(value)
	if !ok {
		return -1
	}
	return minutes
}

// FormatClock renders minutes past midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts a clock value, e.g. AddMinutes("10:00", 60) == "11:00". Malformed input is returned as is.
func AddMinutes(value string, delta int) string {
	minutes, ok := ParseClock(value)
	if !ok {
		return value
	}
	return FormatClock(minutes + delta)
}

// Overlaps reports whether half-open intervals [startA,endA) and [startB,endB) intersect.
func Overlaps(startA, endA, startB, endB int) bool {
	return max(startA, startB) < min(endA, endB)
}

// OverlapsClock is Overlaps over "HH:MM" strings. Malformed bounds never overlap.
func OverlapsClock(startA, endA, startB, endB string) bool {
	sa, ea, sb, eb := ToMinutes(startA), ToMinutes(endA), ToMinutes(startB), ToMinutes(endB)
	if sa < 0 || ea < 0 || sb < 0 || eb < 0 {
		return false
	}
	return Overlaps(sa, ea, sb, eb)
}

// ParseDate parses a wall-clock "YYYY-MM-DD" date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(models.DateLayout, strings.TrimSpace(value), loc)
}

// At combines a date with a clock value in the date's location.
func At(date time.Time, minutes int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).Add(time.Duration(minutes) * time.Minute)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
