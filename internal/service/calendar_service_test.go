package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
	"github.com/noah-isme/class-scheduler/pkg/export"
)

func eventKeys(events []models.CalendarEvent) []string {
	keys := make([]string, 0, len(events))
	for _, evt := range events {
		keys = append(keys, evt.Start.UTC().Format("2006-01-02T15:04")+" "+string(evt.SourceType)+" "+evt.Status)
	}
	return keys
}

func TestProfessorCalendarMergesSourcesAndRefreshesAfterCommit(t *testing.T) {
	f := newSchedulingFixture(t)
	calendar := f.calendarService()
	reschedules := f.rescheduleService(nil, nil)
	ctx := context.Background()
	week := dto.CalendarQuery{From: "2025-03-03", To: "2025-03-09"}

	events, _, err := calendar.ProfessorCalendar(ctx, "prof-1", week)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-03T10:00 availability ",
		"2025-03-05T10:00 fixed_class ",
	}, eventKeys(events))
	assert.Equal(t, "Class with Ana", events[1].Title)

	_, err = reschedules.Reschedule(ctx, "stu-1", mondayRequest("2025-03-05", "2025-03-10"))
	require.NoError(t, err)

	events, _, err = calendar.ProfessorCalendar(ctx, "prof-1", week)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-03T10:00 availability ",
		"2025-03-05T10:00 fixed_class Cancelada",
	}, eventKeys(events))

	events, _, err = calendar.ProfessorCalendar(ctx, "prof-1", dto.CalendarQuery{From: "2025-03-10", To: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-10T10:00 availability ",
		"2025-03-10T10:00 reschedule confirmed",
	}, eventKeys(events))
	assert.Equal(t, "Rescheduled class with Ana", events[1].Title)
}

func TestProfessorCalendarSpansHorizon(t *testing.T) {
	f := newSchedulingFixture(t)
	calendar := f.calendarService()

	events, _, err := calendar.ProfessorCalendar(context.Background(), "prof-1", dto.CalendarQuery{})
	require.NoError(t, err)
	// Twelve weeks of Monday availability and twelve Wednesday classes.
	require.Len(t, events, 24)
	assert.Equal(t, "2024-12-30T10:00 availability ", eventKeys(events)[0])
}

func TestStudentCalendarNamesProfessor(t *testing.T) {
	f := newSchedulingFixture(t)
	calendar := f.calendarService()
	reschedules := f.rescheduleService(nil, nil)
	ctx := context.Background()

	_, err := reschedules.Reschedule(ctx, "stu-1", mondayRequest("2025-03-05", "2025-03-10"))
	require.NoError(t, err)

	events, _, err := calendar.StudentCalendar(ctx, "stu-1", dto.CalendarQuery{From: "2025-03-03", To: "2025-03-16"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-05T10:00 fixed_class Cancelada",
		"2025-03-10T10:00 reschedule confirmed",
		"2025-03-12T10:00 fixed_class ",
	}, eventKeys(events))
	assert.Equal(t, "Class with Marta", events[0].Title)
	assert.Equal(t, "Rescheduled class with Marta", events[1].Title)
}

func TestCalendarErrors(t *testing.T) {
	f := newSchedulingFixture(t)
	calendar := f.calendarService()
	ctx := context.Background()

	_, _, err := calendar.ProfessorCalendar(ctx, "nobody", dto.CalendarQuery{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, _, err = calendar.StudentCalendar(ctx, "nobody", dto.CalendarQuery{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, _, err = calendar.ProfessorCalendar(ctx, "prof-1", dto.CalendarQuery{From: "2025-03-10", To: "2025-03-01"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = calendar.ProfessorCalendar(ctx, "prof-1", dto.CalendarQuery{From: "March"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCalendarExport(t *testing.T) {
	f := newSchedulingFixture(t)
	calendar := f.calendarService()

	events, _, err := calendar.ProfessorCalendar(context.Background(), "prof-1", dto.CalendarQuery{From: "2025-03-03", To: "2025-03-09"})
	require.NoError(t, err)

	csvBody, err := calendar.Export(events, "Marta", export.FormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvBody)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Start,End,Title,Source,Status", lines[0])
	assert.Equal(t, "2025-03-03,10:00,11:00,Available,availability,", lines[1])
	assert.Equal(t, "2025-03-05,10:00,11:00,Class with Ana,fixed_class,", lines[2])

	pdfBody, err := calendar.Export(events, "Marta", export.FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdfBody), "%PDF"))
}
