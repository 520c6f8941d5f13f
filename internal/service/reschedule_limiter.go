package service

import (
	"time"

	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
)

// Quota periods reported in QUOTA_EXCEEDED details.
const (
	QuotaPeriodWeekly  = "weekly"
	QuotaPeriodMonthly = "monthly"
)

// QuotaViolation is attached as details to a QUOTA_EXCEEDED error.
type QuotaViolation struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
}

// RescheduleLimiter counts confirmed reschedules in the current week and month.
type RescheduleLimiter struct {
	WeekStart time.Weekday
	Location  *time.Location
}

// NewRescheduleLimiter builds a limiter whose weeks start on weekStart.
func NewRescheduleLimiter(weekStart time.Weekday, loc *time.Location) RescheduleLimiter {
	if loc == nil {
		loc = time.Local
	}
	return RescheduleLimiter{WeekStart: weekStart, Location: loc}
}

// Windows returns the start of the week and of the month containing now.
func (l RescheduleLimiter) Windows(now time.Time) (time.Time, time.Time) {
	now = now.In(l.Location)
	today := startOfDay(now)
	back := (int(today.Weekday()) - int(l.WeekStart) + 7) % 7
	weekStart := today.AddDate(0, 0, -back)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, l.Location)
	return weekStart, monthStart
}

// Usage counts confirmed records created since the week and month starts.
func (l RescheduleLimiter) Usage(history []models.RescheduleRecord, rules models.ReschedulingRules, now time.Time) models.RescheduleUsage {
	weekStart, monthStart := l.Windows(now)
	usage := models.RescheduleUsage{
		WeeklyLimit:  rules.MaxReschedulesPerWeek,
		MonthlyLimit: rules.MaxReschedulesPerMonth,
		WeekStart:    weekStart,
		MonthStart:   monthStart,
	}
	for _, record := range history {
		if record.Status != models.RescheduleStatusConfirmed {
			continue
		}
		if !record.CreatedAt.Before(weekStart) {
			usage.WeeklyCount++
		}
		if !record.CreatedAt.Before(monthStart) {
			usage.MonthlyCount++
		}
	}
	usage.WeeklyRemaining = max(usage.WeeklyLimit-usage.WeeklyCount, 0)
	usage.MonthlyRemaining = max(usage.MonthlyLimit-usage.MonthlyCount, 0)
	return usage
}

// Check approves a new reschedule or returns QUOTA_EXCEEDED. The weekly limit is checked first.
func (l RescheduleLimiter) Check(history []models.RescheduleRecord, rules models.ReschedulingRules, now time.Time) (models.RescheduleUsage, error) {
	usage := l.Usage(history, rules, now)
	if usage.WeeklyCount >= usage.WeeklyLimit {
		return usage, appErrors.WithDetails(appErrors.ErrQuotaExceeded, "weekly reschedule limit reached",
			QuotaViolation{Period: QuotaPeriodWeekly, Count: usage.WeeklyCount, Limit: usage.WeeklyLimit})
	}
	if usage.MonthlyCount >= usage.MonthlyLimit {
		return usage, appErrors.WithDetails(appErrors.ErrQuotaExceeded, "monthly reschedule limit reached",
			QuotaViolation{Period: QuotaPeriodMonthly, Count: usage.MonthlyCount, Limit: usage.MonthlyLimit})
	}
	return usage, nil
}
