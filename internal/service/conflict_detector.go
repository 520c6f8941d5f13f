package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/class-scheduler/internal/models"
)

// CommitmentKind distinguishes the existing commitments a slot may collide with.
type CommitmentKind string

const (
	CommitmentFixedClass CommitmentKind = "fixed_class"
	CommitmentReschedule CommitmentKind = "reschedule"
	CommitmentSibling    CommitmentKind = "sibling_slot"
)

// Commitment is an existing class reduced to a time range: weekly for fixed
// classes, on a single date for confirmed reschedules.
type Commitment struct {
	Kind      CommitmentKind
	OwnerID   string
	DayOfWeek time.Weekday
	Date      string
	StartTime string
	EndTime   string
}

// Conflict pairs a candidate slot with the commitment it overlaps.
type Conflict struct {
	Slot       models.AvailabilitySlot `json:"slot"`
	Day        string                  `json:"day"`
	Range      string                  `json:"range"`
	Kind       CommitmentKind          `json:"kind"`
	OwnerID    string                  `json:"owner_id,omitempty"`
	Commitment string                  `json:"commitment"`
}

// ConflictDetector checks candidate availability slots against a professor's commitments.
type ConflictDetector struct {
	fixed       []Commitment
	reschedules []Commitment
	loc         *time.Location
}

// NewConflictDetector reduces fixed classes and confirmed reschedules to
// commitments lasting classMinutes. Non-confirmed reschedules are ignored.
func NewConflictDetector(classes []models.FixedClass, records []models.RescheduleRecord, classMinutes int, loc *time.Location) *ConflictDetector {
	if classMinutes <= 0 {
		classMinutes = 60
	}
	if loc == nil {
		loc = time.Local
	}
	d := &ConflictDetector{loc: loc}
	for _, class := range classes {
		if ToMinutes(class.StartTime) < 0 {
			continue
		}
		d.fixed = append(d.fixed, Commitment{
			Kind:      CommitmentFixedClass,
			OwnerID:   class.StudentID,
			DayOfWeek: class.DayOfWeek,
			StartTime: class.StartTime,
			EndTime:   AddMinutes(class.StartTime, classMinutes),
		})
	}
	for _, record := range records {
		if record.Status != models.RescheduleStatusConfirmed || ToMinutes(record.NewTime) < 0 {
			continue
		}
		d.reschedules = append(d.reschedules, Commitment{
			Kind:      CommitmentReschedule,
			OwnerID:   record.StudentID,
			Date:      record.NewDate,
			StartTime: record.NewTime,
			EndTime:   AddMinutes(record.NewTime, classMinutes),
		})
	}
	return d
}

// Detect returns every commitment the candidate overlaps.
//
// A recurring candidate is compared with fixed classes on its weekday only.
// It is not compared with one-off reschedules: a reschedule has a single date
// while the candidate repeats, and matching them by date would under-detect.
func (d *ConflictDetector) Detect(slot models.AvailabilitySlot) []Conflict {
	var conflicts []Conflict
	if slot.IsRecurring {
		weekday := time.Weekday(slot.Weekday())
		for _, c := range d.fixed {
			if c.DayOfWeek == weekday && OverlapsClock(slot.StartTime, slot.EndTime, c.StartTime, c.EndTime) {
				conflicts = append(conflicts, newConflict(slot, weekday.String(), c))
			}
		}
		return conflicts
	}

	date, err := ParseDate(slot.Date, d.loc)
	if err != nil {
		return nil
	}
	for _, c := range d.fixed {
		if c.DayOfWeek == date.Weekday() && OverlapsClock(slot.StartTime, slot.EndTime, c.StartTime, c.EndTime) {
			conflicts = append(conflicts, newConflict(slot, slot.Date, c))
		}
	}
	for _, c := range d.reschedules {
		if c.Date == slot.Date && OverlapsClock(slot.StartTime, slot.EndTime, c.StartTime, c.EndTime) {
			conflicts = append(conflicts, newConflict(slot, slot.Date, c))
		}
	}
	return conflicts
}

// DetectAll runs Detect over every candidate, then reports each pair of
// candidates that would be open at the same time on some day.
func (d *ConflictDetector) DetectAll(slots []models.AvailabilitySlot) []Conflict {
	var conflicts []Conflict
	for _, slot := range slots {
		conflicts = append(conflicts, d.Detect(slot)...)
	}
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			if day, ok := d.siblingOverlap(slots[i], slots[j]); ok {
				conflicts = append(conflicts, newSiblingConflict(slots[j], day, slots[i]))
			}
		}
	}
	return conflicts
}

// siblingOverlap returns the day label on which a and b overlap.
func (d *ConflictDetector) siblingOverlap(a, b models.AvailabilitySlot) (string, bool) {
	if !OverlapsClock(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
		return "", false
	}
	switch {
	case a.IsRecurring && b.IsRecurring:
		if a.Weekday() != b.Weekday() {
			return "", false
		}
		return time.Weekday(a.Weekday()).String(), true
	case !a.IsRecurring && !b.IsRecurring:
		return a.Date, a.Date == b.Date
	case a.IsRecurring:
		return b.Date, d.oneOffWithinRecurring(b, a)
	default:
		return a.Date, d.oneOffWithinRecurring(a, b)
	}
}

func (d *ConflictDetector) oneOffWithinRecurring(oneOff, recurring models.AvailabilitySlot) bool {
	date, err := ParseDate(oneOff.Date, d.loc)
	if err != nil {
		return false
	}
	return SlotAppliesOn(recurring, date)
}

func newConflict(slot models.AvailabilitySlot, day string, c Commitment) Conflict {
	described := fmt.Sprintf("%s %s-%s", c.DayOfWeek, c.StartTime, c.EndTime)
	if c.Kind == CommitmentReschedule {
		described = fmt.Sprintf("%s %s-%s", c.Date, c.StartTime, c.EndTime)
	}
	return Conflict{
		Slot:       slot,
		Day:        day,
		Range:      slot.StartTime + "-" + slot.EndTime,
		Kind:       c.Kind,
		OwnerID:    c.OwnerID,
		Commitment: described,
	}
}

func newSiblingConflict(slot models.AvailabilitySlot, day string, other models.AvailabilitySlot) Conflict {
	described := other.Date
	if other.IsRecurring {
		described = time.Weekday(other.Weekday()).String()
	}
	return Conflict{
		Slot:       slot,
		Day:        day,
		Range:      slot.StartTime + "-" + slot.EndTime,
		Kind:       CommitmentSibling,
		Commitment: fmt.Sprintf("%s %s-%s", described, other.StartTime, other.EndTime),
	}
}
