package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler/internal/models"
)

func TestSlotProjectorMinimumAdvance(t *testing.T) {
	// Monday 2025-03-03 10:00.
	now := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	slots := []models.AvailabilitySlot{
		{ID: "same-day", Date: "2025-03-03", StartTime: "18:00", EndTime: "19:00"},
		{ID: "tuesday", Date: "2025-03-04", StartTime: "11:00", EndTime: "12:00"},
	}

	days := NewSlotProjector(30, time.UTC).Project(slots, 24, now)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-03-04", days[0].Date)
	assert.Equal(t, int(time.Tuesday), days[0].Weekday)
	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, "tuesday", days[0].Slots[0].ID)
}

func TestSlotProjectorZeroAdvanceKeepsToday(t *testing.T) {
	now := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	slots := []models.AvailabilitySlot{{ID: "same-day", Date: "2025-03-03", StartTime: "18:00", EndTime: "19:00"}}

	days := NewSlotProjector(7, time.UTC).Project(slots, 0, now)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-03-03", days[0].Date)
}

func TestSlotProjectorRecurrenceEndDate(t *testing.T) {
	now := time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)
	slots := []models.AvailabilitySlot{
		{ID: "sat", IsRecurring: true, DayOfWeek: dayPtr(time.Saturday), StartTime: "09:00", EndTime: "10:00", RecurrenceEndDate: "2025-03-01"},
	}

	days := NewSlotProjector(60, time.UTC).Project(slots, 0, now)
	require.NotEmpty(t, days)
	for _, day := range days {
		assert.LessOrEqual(t, day.Date, "2025-03-01")
	}
	assert.Equal(t, "2025-03-01", days[len(days)-1].Date, "the end date itself is still bookable")
	assert.Len(t, days, 3)
}

func TestSlotProjectorOrdersAndGroups(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	slots := []models.AvailabilitySlot{
		{ID: "late", IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "15:00", EndTime: "16:00"},
		{ID: "early", IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "9:00", EndTime: "10:00"},
		{ID: "extra", Date: "2025-03-03", StartTime: "12:00", EndTime: "13:00"},
	}

	days := NewSlotProjector(7, time.UTC).Project(slots, 24, now)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-03-03", days[0].Date)
	ids := []string{}
	for _, s := range days[0].Slots {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"early", "extra", "late"}, ids)
}

func TestSlotProjectorIsDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	slots := []models.AvailabilitySlot{{ID: "mon", IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "10:00", EndTime: "11:00"}}
	p := NewSlotProjector(0, time.UTC)

	first := p.Project(slots, 24, now)
	assert.Equal(t, first, p.Project(slots, 24, now))
	assert.Len(t, first, 4)
}

func TestFindSlot(t *testing.T) {
	slots := []models.AvailabilitySlot{{ID: "mon", IsRecurring: true, DayOfWeek: dayPtr(time.Monday), StartTime: "10:00", EndTime: "11:00"}}
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	slot, ok := FindSlot(slots, monday, "10:00")
	require.True(t, ok)
	assert.Equal(t, "mon", slot.ID)

	_, ok = FindSlot(slots, monday, "11:00")
	assert.False(t, ok)
	_, ok = FindSlot(slots, monday.AddDate(0, 0, 1), "10:00")
	assert.False(t, ok)
}
