package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/class-scheduler/internal/models"
)

// Calendar defaults.
const (
	DefaultHorizonWeeks = 104
	DefaultClassMinutes = 60
)

// WeeklyRule is a weekly recurrence: a weekday and a start time, optionally bounded by an end date.
type WeeklyRule struct {
	Weekday  time.Weekday
	Start    int
	Duration int
	EndDate  string
}

// ExpandWeekly steps week by week from anchor for horizon iterations, moving
// each step forward to the rule's weekday, and returns the occurrence starts.
// Occurrences after EndDate are not emitted.
func ExpandWeekly(rule WeeklyRule, anchor time.Time, horizon int) []time.Time {
	anchor = startOfDay(anchor)
	starts := make([]time.Time, 0, horizon)
	for i := 0; i < horizon; i++ {
		candidate := anchor.AddDate(0, 0, 7*i)
		if shift := (int(rule.Weekday) - int(candidate.Weekday()) + 7) % 7; shift != 0 {
			candidate = candidate.AddDate(0, 0, shift)
		}
		if rule.EndDate != "" && candidate.Format(models.DateLayout) > rule.EndDate {
			break
		}
		starts = append(starts, At(candidate, rule.Start))
	}
	return starts
}

// CalendarSources is the state a calendar view is projected from.
type CalendarSources struct {
	Students     []models.Student
	Availability []models.AvailabilitySlot
	Reschedules  []models.RescheduleRecord
	OwnerID      string
}

// CalendarProjector merges fixed classes, availability and confirmed
// reschedules into display events. It never mutates its inputs.
type CalendarProjector struct {
	HorizonWeeks int
	ClassMinutes int
	WeekStart    time.Weekday
	Location     *time.Location
}

// NewCalendarProjector applies defaults to non-positive settings.
func NewCalendarProjector(horizonWeeks, classMinutes int, weekStart time.Weekday, loc *time.Location) CalendarProjector {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}
	if classMinutes <= 0 {
		classMinutes = DefaultClassMinutes
	}
	if loc == nil {
		loc = time.Local
	}
	return CalendarProjector{HorizonWeeks: horizonWeeks, ClassMinutes: classMinutes, WeekStart: weekStart, Location: loc}
}

// Anchor is the first day of the week containing January 1st of now's year.
func (p CalendarProjector) Anchor(now time.Time) time.Time {
	jan1 := time.Date(now.In(p.Location).Year(), time.January, 1, 0, 0, 0, 0, p.Location)
	back := (int(jan1.Weekday()) - int(p.WeekStart) + 7) % 7
	return jan1.AddDate(0, 0, -back)
}

// Project expands every source and returns the events ordered by start.
func (p CalendarProjector) Project(src CalendarSources, now time.Time) []models.CalendarEvent {
	anchor := p.Anchor(now)
	names := make(map[string]string, len(src.Students))
	events := make([]models.CalendarEvent, 0)

	for _, student := range src.Students {
		names[student.ID] = student.Name
		events = append(events, p.fixedClassEvents(student, anchor)...)
	}
	events = append(events, p.availabilityEvents(src.Availability, src.OwnerID, anchor)...)
	events = append(events, p.rescheduleEvents(src.Reschedules, names)...)

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
	return events
}

func (p CalendarProjector) fixedClassEvents(student models.Student, anchor time.Time) []models.CalendarEvent {
	var events []models.CalendarEvent
	for _, class := range student.FixedClasses() {
		start := ToMinutes(class.StartTime)
		if start < 0 {
			continue
		}
		rule := WeeklyRule{Weekday: class.DayOfWeek, Start: start, Duration: p.ClassMinutes}
		for _, at := range ExpandWeekly(rule, anchor, p.HorizonWeeks) {
			events = append(events, models.CalendarEvent{
				ID:         fmt.Sprintf("fixed:%s:%s", student.ID, at.Format("2006-01-02T15:04")),
				Title:      "Class with " + student.Name,
				Start:      at,
				End:        at.Add(time.Duration(rule.Duration) * time.Minute),
				SourceType: models.CalendarSourceFixedClass,
				OwnerID:    student.ID,
				Status:     student.Classes.Status(at),
			})
		}
	}
	return events
}

func (p CalendarProjector) availabilityEvents(slots []models.AvailabilitySlot, ownerID string, anchor time.Time) []models.CalendarEvent {
	var events []models.CalendarEvent
	for _, slot := range slots {
		start, end := ToMinutes(slot.StartTime), ToMinutes(slot.EndTime)
		if start < 0 {
			continue
		}
		duration := p.ClassMinutes
		if end > start {
			duration = end - start
		}

		var starts []time.Time
		if slot.IsRecurring {
			if slot.Weekday() < 0 {
				continue
			}
			rule := WeeklyRule{Weekday: time.Weekday(slot.Weekday()), Start: start, Duration: duration, EndDate: slot.RecurrenceEndDate}
			starts = ExpandWeekly(rule, anchor, p.HorizonWeeks)
		} else {
			date, err := ParseDate(slot.Date, p.Location)
			if err != nil {
				continue
			}
			starts = []time.Time{At(date, start)}
		}

		for _, at := range starts {
			events = append(events, models.CalendarEvent{
				ID:         fmt.Sprintf("availability:%s:%s", slot.ID, at.Format(models.DateLayout)),
				Title:      "Available",
				Start:      at,
				End:        at.Add(time.Duration(duration) * time.Minute),
				SourceType: models.CalendarSourceAvailability,
				OwnerID:    ownerID,
			})
		}
	}
	return events
}

func (p CalendarProjector) rescheduleEvents(records []models.RescheduleRecord, names map[string]string) []models.CalendarEvent {
	var events []models.CalendarEvent
	for _, record := range records {
		if record.Status != models.RescheduleStatusConfirmed {
			continue
		}
		date, err := ParseDate(record.NewDate, p.Location)
		start := ToMinutes(record.NewTime)
		if err != nil || start < 0 {
			continue
		}
		title := "Rescheduled class"
		if name := names[record.StudentID]; name != "" {
			title += " with " + name
		}
		at := At(date, start)
		events = append(events, models.CalendarEvent{
			ID:         "reschedule:" + record.ID,
			Title:      title,
			Start:      at,
			End:        at.Add(time.Duration(p.ClassMinutes) * time.Minute),
			SourceType: models.CalendarSourceReschedule,
			OwnerID:    record.StudentID,
			Status:     string(record.Status),
		})
	}
	return events
}
