package models

// DateLayout is the wall-clock date format used across documents ("YYYY-MM-DD").
const DateLayout = "2006-01-02"

// AvailabilitySlot is a professor-declared bookable window, either weekly-recurring or bound to one date.
type AvailabilitySlot struct {
	ID                string `json:"id"`
	DayOfWeek         *int   `json:"day_of_week,omitempty"`
	Date              string `json:"date,omitempty"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	IsRecurring       bool   `json:"is_recurring"`
	RecurrenceEndDate string `json:"recurrence_end_date,omitempty"`
}

// Weekday returns the recurring weekday, or -1 when unset.
func (s AvailabilitySlot) Weekday() int {
	if s.DayOfWeek == nil {
		return -1
	}
	return *s.DayOfWeek
}

// ReschedulingRules bound how far ahead and how often a student may reschedule with a professor.
type ReschedulingRules struct {
	MinAdvanceHours        int `json:"min_advance_hours" validate:"min=0,max=8760"`
	MaxReschedulesPerWeek  int `json:"max_reschedules_per_week" validate:"min=0"`
	MaxReschedulesPerMonth int `json:"max_reschedules_per_month" validate:"min=0"`
}

// DefaultReschedulingRules mirrors the rules applied when a professor never saved any.
func DefaultReschedulingRules() ReschedulingRules {
	return ReschedulingRules{MinAdvanceHours: 24, MaxReschedulesPerWeek: 1, MaxReschedulesPerMonth: 2}
}

// Professor is the professor document; availability is replaced wholesale on each save.
type Professor struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Availability []AvailabilitySlot `json:"availability"`
	Rules        *ReschedulingRules `json:"rescheduling_rules,omitempty"`
}

// EffectiveRules returns the stored rules or the defaults.
func (p Professor) EffectiveRules(defaults ReschedulingRules) ReschedulingRules {
	if p.Rules == nil {
		return defaults
	}
	return *p.Rules
}
