package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchedulingDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.Scheduling.MinAdvanceHours)
	assert.Equal(t, 1, cfg.Scheduling.MaxPerWeek)
	assert.Equal(t, 2, cfg.Scheduling.MaxPerMonth)
	assert.Equal(t, 30, cfg.Scheduling.WindowDays)
	assert.Equal(t, 104, cfg.Scheduling.CalendarHorizonWeeks)
	assert.Equal(t, 60, cfg.Scheduling.ClassMinutes)
	assert.Equal(t, time.Sunday, cfg.Scheduling.WeekStart)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SCHEDULING_WEEK_START", "Monday")
	t.Setenv("SCHEDULING_MAX_PER_WEEK", "3")
	t.Setenv("STORE_DRIVER", "POSTGRES")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Monday, cfg.Scheduling.WeekStart)
	assert.Equal(t, 3, cfg.Scheduling.MaxPerWeek)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
}

func TestParseHelpersFallBack(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("garbage", time.Minute))
	assert.Equal(t, time.Saturday, parseWeekday("someday", time.Saturday))
	assert.Equal(t, time.Local, parseLocation("Nowhere/Invalid"))
}
