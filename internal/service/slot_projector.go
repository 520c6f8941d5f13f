package service

import (
	"sort"
	"time"

	"github.com/noah-isme/class-scheduler/internal/models"
)

// DefaultWindowDays is the bookable lookahead when none is configured.
const DefaultWindowDays = 30

// SlotProjector expands availability slots into dated, bookable instances.
type SlotProjector struct {
	WindowDays int
	Location   *time.Location
}

// NewSlotProjector builds a projector; non-positive windows fall back to DefaultWindowDays.
func NewSlotProjector(windowDays int, loc *time.Location) SlotProjector {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if loc == nil {
		loc = time.Local
	}
	return SlotProjector{WindowDays: windowDays, Location: loc}
}

// Project lists, for each of the next WindowDays days starting today, the
// slots that apply on that date, ordered by start time. Days before the date
// of now+minAdvanceHours are dropped whole, as are days with no slot.
func (p SlotProjector) Project(slots []models.AvailabilitySlot, minAdvanceHours int, now time.Time) []models.ProjectedDay {
	now = now.In(p.Location)
	today := startOfDay(now)
	cutoff := startOfDay(now.Add(time.Duration(minAdvanceHours) * time.Hour))

	days := make([]models.ProjectedDay, 0)
	for offset := 0; offset < p.WindowDays; offset++ {
		date := today.AddDate(0, 0, offset)
		if date.Before(cutoff) {
			continue
		}
		applicable := SlotsOn(slots, date)
		if len(applicable) == 0 {
			continue
		}
		day := models.ProjectedDay{
			Date:    date.Format(models.DateLayout),
			Weekday: int(date.Weekday()),
			Slots:   make([]models.ProjectedSlot, 0, len(applicable)),
		}
		for _, slot := range applicable {
			day.Slots = append(day.Slots, models.ProjectedSlot{ID: slot.ID, StartTime: slot.StartTime, EndTime: slot.EndTime})
		}
		days = append(days, day)
	}
	return days
}

// SlotAppliesOn reports whether slot yields an instance on date: a one-off
// slot on its own date, a recurring slot on its weekday up to its end date.
func SlotAppliesOn(slot models.AvailabilitySlot, date time.Time) bool {
	iso := date.Format(models.DateLayout)
	if !slot.IsRecurring {
		return slot.Date == iso
	}
	if slot.Weekday() != int(date.Weekday()) {
		return false
	}
	return slot.RecurrenceEndDate == "" || iso <= slot.RecurrenceEndDate
}

// SlotsOn returns the slots applying on date sorted by start time.
func SlotsOn(slots []models.AvailabilitySlot, date time.Time) []models.AvailabilitySlot {
	var out []models.AvailabilitySlot
	for _, slot := range slots {
		if SlotAppliesOn(slot, date) {
			out = append(out, slot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ToMinutes(out[i].StartTime) < ToMinutes(out[j].StartTime)
	})
	return out
}

// FindSlot returns the slot applying on date that starts at startTime.
func FindSlot(slots []models.AvailabilitySlot, date time.Time, startTime string) (models.AvailabilitySlot, bool) {
	want := ToMinutes(startTime)
	if want < 0 {
		return models.AvailabilitySlot{}, false
	}
	for _, slot := range SlotsOn(slots, date) {
		if ToMinutes(slot.StartTime) == want {
			return slot, true
		}
	}
	return models.AvailabilitySlot{}, false
}
