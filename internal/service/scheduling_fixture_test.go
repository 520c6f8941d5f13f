package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler/internal/models"
	"github.com/noah-isme/class-scheduler/internal/repository"
	"github.com/noah-isme/class-scheduler/pkg/docstore"
	"github.com/noah-isme/class-scheduler/pkg/events"
)

// Monday 2025-03-03 09:00 UTC.
var fixtureNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

type schedulingFixture struct {
	store       *docstore.MemoryStore
	professors  *repository.ProfessorRepository
	students    *repository.StudentRepository
	reschedules *repository.RescheduleRepository
	cacheRepo   *memoryCacheRepo
	cache       *CacheService
	metrics     *MetricsService
	opts        SchedulingOptions
}

func newSchedulingFixture(t *testing.T) *schedulingFixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	metrics := NewMetricsService()
	cacheRepo := newMemoryCacheRepo()
	f := &schedulingFixture{
		store:       store,
		professors:  repository.NewProfessorRepository(store),
		students:    repository.NewStudentRepository(store),
		reschedules: repository.NewRescheduleRepository(store),
		cacheRepo:   cacheRepo,
		cache:       NewCacheService(cacheRepo, metrics, time.Minute, nil, true),
		metrics:     metrics,
		opts: SchedulingOptions{
			DefaultRules: models.DefaultReschedulingRules(),
			WindowDays:   30,
			HorizonWeeks: 12,
			ClassMinutes: 60,
			WeekStart:    time.Sunday,
			Location:     time.UTC,
		},
	}

	monday := int(time.Monday)
	rules := models.ReschedulingRules{MinAdvanceHours: 24, MaxReschedulesPerWeek: 1, MaxReschedulesPerMonth: 2}
	f.seedProfessor(t, models.Professor{
		ID:    "prof-1",
		Name:  "Marta",
		Email: "marta@example.com",
		Availability: []models.AvailabilitySlot{
			{ID: "slot-mon", DayOfWeek: &monday, StartTime: "10:00", EndTime: "11:00", IsRecurring: true},
		},
		Rules: &rules,
	})
	f.seedStudent(t, models.Student{
		ID:          "stu-1",
		Name:        "Ana",
		Email:       "ana@example.com",
		ProfessorID: "prof-1",
		ClassDays:   []string{"Quarta"},
		ClassTimes:  []string{"10:00"},
	})
	return f
}

func (f *schedulingFixture) seedProfessor(t *testing.T, professor models.Professor) {
	t.Helper()
	require.NoError(t, f.professors.Upsert(context.Background(), &professor))
}

func (f *schedulingFixture) seedStudent(t *testing.T, student models.Student) {
	t.Helper()
	require.NoError(t, f.students.Upsert(context.Background(), &student))
}

func (f *schedulingFixture) rescheduleService(notifier confirmationSender, publisher events.Publisher) *RescheduleService {
	svc := NewRescheduleService(RescheduleServiceParams{
		Professors:  f.professors,
		Students:    f.students,
		Reschedules: f.reschedules,
		Notifier:    notifier,
		Publisher:   publisher,
		Cache:       f.cache,
		Metrics:     f.metrics,
		Options:     f.opts,
	})
	svc.now = func() time.Time { return fixtureNow }
	return svc
}

func (f *schedulingFixture) availabilityService() *AvailabilityService {
	svc := NewAvailabilityService(AvailabilityServiceParams{
		Professors:  f.professors,
		Students:    f.students,
		Reschedules: f.reschedules,
		Cache:       f.cache,
		Options:     f.opts,
	})
	svc.now = func() time.Time { return fixtureNow }
	return svc
}

func (f *schedulingFixture) calendarService() *CalendarService {
	svc := NewCalendarService(CalendarServiceParams{
		Professors:  f.professors,
		Students:    f.students,
		Reschedules: f.reschedules,
		Cache:       f.cache,
		Options:     f.opts,
	})
	svc.now = func() time.Time { return fixtureNow }
	return svc
}

func fixtureDate(value string) time.Time {
	date, err := time.ParseInLocation(models.DateLayout, value, time.UTC)
	if err != nil {
		panic(err)
	}
	return date
}

type recordingNotifier struct {
	mu     sync.Mutex
	emails []ConfirmationEmail
	err    error
}

func (n *recordingNotifier) SendConfirmationEmail(_ context.Context, email ConfirmationEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.emails = append(n.emails, email)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
