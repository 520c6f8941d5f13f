package models

import "time"

// RescheduleStatus is the lifecycle state of a RescheduleRecord.
type RescheduleStatus string

const (
	RescheduleStatusPending            RescheduleStatus = "pending"
	RescheduleStatusConfirmed          RescheduleStatus = "confirmed"
	RescheduleStatusCancelledByStudent RescheduleStatus = "cancelled_by_student"
	RescheduleStatusCancelledByTeacher RescheduleStatus = "cancelled_by_teacher"
)

// IsTerminal reports whether no further transition is possible.
func (s RescheduleStatus) IsTerminal() bool {
	return s == RescheduleStatusCancelledByStudent || s == RescheduleStatusCancelledByTeacher
}

// Valid reports whether s is a known status.
func (s RescheduleStatus) Valid() bool {
	switch s {
	case RescheduleStatusPending, RescheduleStatusConfirmed, RescheduleStatusCancelledByStudent, RescheduleStatusCancelledByTeacher:
		return true
	}
	return false
}

// CanTransitionTo reports whether s may move to next. Status only moves forward.
func (s RescheduleStatus) CanTransitionTo(next RescheduleStatus) bool {
	switch s {
	case "":
		return next == RescheduleStatusPending || next == RescheduleStatusConfirmed
	case RescheduleStatusPending:
		return next == RescheduleStatusConfirmed || next.IsTerminal()
	case RescheduleStatusConfirmed:
		return next.IsTerminal()
	default:
		return false
	}
}

// RescheduleRecord is the durable record of a class moved from OriginalDate to NewDate at NewTime.
type RescheduleRecord struct {
	ID           string           `json:"id"`
	StudentID    string           `json:"student_id"`
	ProfessorID  string           `json:"professor_id"`
	OriginalDate string           `json:"original_date"`
	NewDate      string           `json:"new_date"`
	NewTime      string           `json:"new_time"`
	Status       RescheduleStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
}

// RescheduleUsage summarises a student's quota consumption for the current week and month.
type RescheduleUsage struct {
	WeeklyCount      int       `json:"weekly_count"`
	MonthlyCount     int       `json:"monthly_count"`
	WeeklyLimit      int       `json:"weekly_limit"`
	MonthlyLimit     int       `json:"monthly_limit"`
	WeeklyRemaining  int       `json:"weekly_remaining"`
	MonthlyRemaining int       `json:"monthly_remaining"`
	WeekStart        time.Time `json:"week_start"`
	MonthStart       time.Time `json:"month_start"`
}
