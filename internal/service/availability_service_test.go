package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestSaveAvailabilityAssignsIDs(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()
	ctx := context.Background()

	saved, err := svc.SaveAvailability(ctx, "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{DayOfWeek: dayPtr(time.Tuesday), StartTime: "14:00", EndTime: "16:00", IsRecurring: true, RecurrenceEndDate: "2025-06-30"},
		{Date: "2025-03-08", StartTime: "9:00", EndTime: "10:00"},
	}})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotEmpty(t, saved[0].ID)
	assert.NotEqual(t, saved[0].ID, saved[1].ID)
	assert.Equal(t, "09:00", saved[1].StartTime)

	stored, err := svc.GetAvailability(ctx, "prof-1")
	require.NoError(t, err)
	assert.Equal(t, saved, stored)
}

func TestSaveAvailabilityRejectsInvalidSlots(t *testing.T) {
	cases := map[string]dto.AvailabilitySlotInput{
		"end before start":         {DayOfWeek: dayPtr(time.Monday), StartTime: "11:00", EndTime: "10:00", IsRecurring: true},
		"empty range":              {DayOfWeek: dayPtr(time.Monday), StartTime: "10:00", EndTime: "10:00", IsRecurring: true},
		"malformed start":          {DayOfWeek: dayPtr(time.Monday), StartTime: "9h", EndTime: "10:00", IsRecurring: true},
		"recurring without day":    {StartTime: "10:00", EndTime: "11:00", IsRecurring: true},
		"recurring with date":      {DayOfWeek: dayPtr(time.Monday), Date: "2025-03-10", StartTime: "10:00", EndTime: "11:00", IsRecurring: true},
		"one-off without date":     {StartTime: "10:00", EndTime: "11:00"},
		"one-off with end date":    {Date: "2025-03-10", StartTime: "10:00", EndTime: "11:00", RecurrenceEndDate: "2025-04-01"},
		"weekday out of range":     {DayOfWeek: intPtr(7), StartTime: "10:00", EndTime: "11:00", IsRecurring: true},
		"malformed recurrence end": {DayOfWeek: dayPtr(time.Monday), StartTime: "10:00", EndTime: "11:00", IsRecurring: true, RecurrenceEndDate: "soon"},
	}
	for name, slot := range cases {
		t.Run(name, func(t *testing.T) {
			f := newSchedulingFixture(t)
			svc := f.availabilityService()

			_, err := svc.SaveAvailability(context.Background(), "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{slot}})
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrInvalidSlotDefinition)

			stored, err := svc.GetAvailability(context.Background(), "prof-1")
			require.NoError(t, err)
			require.Len(t, stored, 1)
			assert.Equal(t, "slot-mon", stored[0].ID)
		})
	}
}

func TestSaveAvailabilityReportsEveryInvalidSlot(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()

	_, err := svc.SaveAvailability(context.Background(), "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{DayOfWeek: dayPtr(time.Monday), StartTime: "11:00", EndTime: "10:00", IsRecurring: true},
		{DayOfWeek: dayPtr(time.Monday), StartTime: "12:00", EndTime: "13:00", IsRecurring: true},
		{StartTime: "10:00", EndTime: "11:00"},
	}})
	require.Error(t, err)
	problems, ok := appErrors.FromError(err).Details.([]SlotProblem)
	require.True(t, ok)
	require.Len(t, problems, 2)
	assert.Equal(t, 0, problems[0].Index)
	assert.Equal(t, 2, problems[1].Index)
}

func TestSaveAvailabilityRejectsOverlappingSiblingSlots(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()
	ctx := context.Background()

	_, err := svc.SaveAvailability(ctx, "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{DayOfWeek: dayPtr(time.Friday), StartTime: "14:00", EndTime: "16:00", IsRecurring: true},
		{DayOfWeek: dayPtr(time.Friday), StartTime: "15:00", EndTime: "17:00", IsRecurring: true},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflictDetected)
	conflicts, ok := appErrors.FromError(err).Details.([]Conflict)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, CommitmentSibling, conflicts[0].Kind)
	assert.Equal(t, "Friday", conflicts[0].Day)
	assert.Equal(t, "15:00-17:00", conflicts[0].Range)

	stored, err := svc.GetAvailability(ctx, "prof-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "slot-mon", stored[0].ID)
}

func TestSaveAvailabilityRejectsBatchOnConflict(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()
	ctx := context.Background()

	_, err := svc.SaveAvailability(ctx, "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{DayOfWeek: dayPtr(time.Friday), StartTime: "08:00", EndTime: "09:00", IsRecurring: true},
		{DayOfWeek: dayPtr(time.Wednesday), StartTime: "10:30", EndTime: "11:30", IsRecurring: true},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflictDetected)
	conflicts, ok := appErrors.FromError(err).Details.([]Conflict)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Wednesday", conflicts[0].Day)
	assert.Equal(t, "10:30-11:30", conflicts[0].Range)
	assert.Equal(t, "stu-1", conflicts[0].OwnerID)

	stored, err := svc.GetAvailability(ctx, "prof-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "slot-mon", stored[0].ID)
}

func TestSaveAvailabilityTouchingBoundaryIsFree(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()

	_, err := svc.SaveAvailability(context.Background(), "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{Date: "2025-03-12", StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: dayPtr(time.Wednesday), StartTime: "11:00", EndTime: "12:00", IsRecurring: true},
	}})
	require.NoError(t, err)
}

func TestSaveAvailabilityAgainstConfirmedReschedules(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()
	ctx := context.Background()

	record := &models.RescheduleRecord{
		ID:           "r-1",
		StudentID:    "stu-1",
		ProfessorID:  "prof-1",
		OriginalDate: "2025-03-19",
		NewDate:      "2025-03-20",
		NewTime:      "14:00",
		Status:       models.RescheduleStatusConfirmed,
		CreatedAt:    fixtureNow,
	}
	require.NoError(t, f.reschedules.Commit(ctx, record, fixtureDate("2025-03-19")))

	_, err := svc.SaveAvailability(ctx, "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{Date: "2025-03-20", StartTime: "14:30", EndTime: "15:00"},
	}})
	require.Error(t, err)
	conflicts := appErrors.FromError(err).Details.([]Conflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, CommitmentReschedule, conflicts[0].Kind)

	// Recurring candidates are only compared with fixed classes.
	_, err = svc.SaveAvailability(ctx, "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{DayOfWeek: dayPtr(time.Thursday), StartTime: "14:00", EndTime: "15:00", IsRecurring: true},
	}})
	require.NoError(t, err)
}

func TestAvailabilityUnknownProfessor(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()

	_, err := svc.GetAvailability(context.Background(), "nobody")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.SaveAvailability(context.Background(), "nobody", dto.SaveAvailabilityRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, _, err = svc.BookableSlots(context.Background(), "nobody")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRulesDefaultsAndUpdate(t *testing.T) {
	f := newSchedulingFixture(t)
	f.seedProfessor(t, models.Professor{ID: "prof-2", Name: "Rui"})
	svc := f.availabilityService()
	ctx := context.Background()

	rules, err := svc.GetRules(ctx, "prof-2")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultReschedulingRules(), rules)

	updated, err := svc.UpdateRules(ctx, "prof-2", dto.UpdateRulesRequest{
		MinAdvanceHours:        intPtr(48),
		MaxReschedulesPerWeek:  intPtr(2),
		MaxReschedulesPerMonth: intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReschedulingRules{MinAdvanceHours: 48, MaxReschedulesPerWeek: 2, MaxReschedulesPerMonth: 0}, updated)

	rules, err = svc.GetRules(ctx, "prof-2")
	require.NoError(t, err)
	assert.Equal(t, updated, rules)

	_, err = svc.UpdateRules(ctx, "prof-2", dto.UpdateRulesRequest{MinAdvanceHours: intPtr(-1), MaxReschedulesPerWeek: intPtr(1), MaxReschedulesPerMonth: intPtr(1)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateRules(ctx, "prof-2", dto.UpdateRulesRequest{MinAdvanceHours: intPtr(24)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestBookableSlotsCachedUntilAvailabilityChanges(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.availabilityService()
	ctx := context.Background()

	days, hit, err := svc.BookableSlots(ctx, "prof-1")
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.False(t, hit)
	assert.Equal(t, "2025-03-10", days[0].Date)
	assert.Equal(t, "slot-mon", days[0].Slots[0].ID)

	// A write that bypasses the service is not seen until the cache is invalidated.
	require.NoError(t, f.professors.ReplaceAvailability(ctx, "prof-1", nil))
	days, hit, err = svc.BookableSlots(ctx, "prof-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, days, 4)

	_, err = svc.SaveAvailability(ctx, "prof-1", dto.SaveAvailabilityRequest{Slots: []dto.AvailabilitySlotInput{
		{Date: "2025-03-08", StartTime: "09:00", EndTime: "10:00"},
	}})
	require.NoError(t, err)

	days, _, err = svc.BookableSlots(ctx, "prof-1")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-03-08", days[0].Date)
	assert.Equal(t, int(time.Saturday), days[0].Weekday)
}
