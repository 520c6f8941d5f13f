package models

import "time"

// CalendarSource identifies which rule produced a calendar event.
type CalendarSource string

const (
	CalendarSourceFixedClass   CalendarSource = "fixed_class"
	CalendarSourceAvailability CalendarSource = "availability"
	CalendarSourceReschedule   CalendarSource = "reschedule"
)

// CalendarEvent is a concrete, display-only occurrence.
type CalendarEvent struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	SourceType CalendarSource `json:"source_type"`
	OwnerID    string         `json:"owner_id"`
	Status     string         `json:"status,omitempty"`
}

// ProjectedSlot is a bookable instance of an availability slot on a given day.
type ProjectedSlot struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ProjectedDay groups the bookable instances of one date, ordered by start time.
type ProjectedDay struct {
	Date    string          `json:"date"`
	Weekday int             `json:"weekday"`
	Slots   []ProjectedSlot `json:"slots"`
}
