package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler/internal/models"
)

func dayPtr(d time.Weekday) *int {
	v := int(d)
	return &v
}

func newTestDetector() *ConflictDetector {
	classes := []models.FixedClass{
		{StudentID: "stu-1", DayOfWeek: time.Wednesday, StartTime: "10:00"},
		{StudentID: "stu-2", DayOfWeek: time.Monday, StartTime: "14:00"},
	}
	records := []models.RescheduleRecord{
		{StudentID: "stu-3", NewDate: "2025-03-06", NewTime: "16:00", Status: models.RescheduleStatusConfirmed},
		{StudentID: "stu-4", NewDate: "2025-03-07", NewTime: "16:00", Status: models.RescheduleStatusCancelledByStudent},
	}
	return NewConflictDetector(classes, records, 60, time.UTC)
}

func TestConflictDetectorRecurringAgainstFixedClasses(t *testing.T) {
	d := newTestDetector()

	conflicts := d.Detect(models.AvailabilitySlot{IsRecurring: true, DayOfWeek: dayPtr(time.Wednesday), StartTime: "10:30", EndTime: "11:30"})
	require.Len(t, conflicts, 1)
	assert.Equal(t, CommitmentFixedClass, conflicts[0].Kind)
	assert.Equal(t, "stu-1", conflicts[0].OwnerID)
	assert.Equal(t, "Wednesday", conflicts[0].Day)
	assert.Equal(t, "10:30-11:30", conflicts[0].Range)

	assert.Empty(t, d.Detect(models.AvailabilitySlot{IsRecurring: true, DayOfWeek: dayPtr(time.Wednesday), StartTime: "11:00", EndTime: "12:00"}))
	assert.Empty(t, d.Detect(models.AvailabilitySlot{IsRecurring: true, DayOfWeek: dayPtr(time.Thursday), StartTime: "10:00", EndTime: "11:00"}))
}

func TestConflictDetectorRecurringIgnoresReschedules(t *testing.T) {
	d := newTestDetector()
	// 2025-03-06 is a Thursday with a confirmed reschedule at 16:00.
	assert.Empty(t, d.Detect(models.AvailabilitySlot{IsRecurring: true, DayOfWeek: dayPtr(time.Thursday), StartTime: "16:00", EndTime: "17:00"}))
}

func TestConflictDetectorOneOff(t *testing.T) {
	d := newTestDetector()

	conflicts := d.Detect(models.AvailabilitySlot{Date: "2025-03-05", StartTime: "09:30", EndTime: "10:30"})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "2025-03-05", conflicts[0].Day)

	conflicts = d.Detect(models.AvailabilitySlot{Date: "2025-03-06", StartTime: "16:30", EndTime: "17:00"})
	require.Len(t, conflicts, 1)
	assert.Equal(t, CommitmentReschedule, conflicts[0].Kind)
	assert.Equal(t, "2025-03-06 16:00-17:00", conflicts[0].Commitment)

	assert.Empty(t, d.Detect(models.AvailabilitySlot{Date: "2025-03-07", StartTime: "16:00", EndTime: "17:00"}), "cancelled reschedules free the slot")
	assert.Empty(t, d.Detect(models.AvailabilitySlot{Date: "2025-03-13", StartTime: "16:00", EndTime: "17:00"}))
}

func TestConflictDetectorDetectAll(t *testing.T) {
	d := newTestDetector()
	conflicts := d.DetectAll([]models.AvailabilitySlot{
		{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "13:30", EndTime: "14:30"},
		{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "08:00", EndTime: "09:00"},
		{Date: "2025-03-05", StartTime: "10:00", EndTime: "11:00"},
	})
	assert.Len(t, conflicts, 2)
}

func TestConflictDetectorDetectAllSiblingSlots(t *testing.T) {
	d := NewConflictDetector(nil, nil, 60, time.UTC)

	tests := []struct {
		name  string
		slots []models.AvailabilitySlot
		want  []Conflict
	}{
		{
			name: "recurring on same weekday",
			slots: []models.AvailabilitySlot{
				{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "09:00", EndTime: "11:00"},
				{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "10:00", EndTime: "12:00"},
			},
			want: []Conflict{{Day: "Monday", Range: "10:00-12:00", Kind: CommitmentSibling, Commitment: "Monday 09:00-11:00"}},
		},
		{
			name: "one-off on same date",
			slots: []models.AvailabilitySlot{
				{Date: "2025-03-08", StartTime: "09:00", EndTime: "10:00"},
				{Date: "2025-03-08", StartTime: "09:30", EndTime: "10:30"},
			},
			want: []Conflict{{Day: "2025-03-08", Range: "09:30-10:30", Kind: CommitmentSibling, Commitment: "2025-03-08 09:00-10:00"}},
		},
		{
			name: "one-off inside recurring window",
			slots: []models.AvailabilitySlot{
				{Date: "2025-03-10", StartTime: "09:30", EndTime: "10:30"},
				{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "09:00", EndTime: "10:00", RecurrenceEndDate: "2025-06-30"},
			},
			want: []Conflict{{Day: "2025-03-10", Range: "09:00-10:00", Kind: CommitmentSibling, Commitment: "2025-03-10 09:30-10:30"}},
		},
		{
			name: "adjacent ranges",
			slots: []models.AvailabilitySlot{
				{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "09:00", EndTime: "10:00"},
				{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "10:00", EndTime: "11:00"},
			},
		},
		{
			name: "different weekdays",
			slots: []models.AvailabilitySlot{
				{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "09:00", EndTime: "10:00"},
				{IsRecurring: true, DayOfWeek: dayPtr(time.Tuesday), StartTime: "09:00", EndTime: "10:00"},
			},
		},
		{
			name: "one-off after recurrence ends",
			slots: []models.AvailabilitySlot{
				{IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "09:00", EndTime: "10:00", RecurrenceEndDate: "2025-03-31"},
				{Date: "2025-04-07", StartTime: "09:00", EndTime: "10:00"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conflicts := d.DetectAll(tc.slots)
			require.Len(t, conflicts, len(tc.want))
			for i, want := range tc.want {
				assert.Equal(t, want.Day, conflicts[i].Day)
				assert.Equal(t, want.Range, conflicts[i].Range)
				assert.Equal(t, want.Kind, conflicts[i].Kind)
				assert.Equal(t, want.Commitment, conflicts[i].Commitment)
				assert.Empty(t, conflicts[i].OwnerID)
			}
		})
	}
}
