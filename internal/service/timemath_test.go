package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := map[string]int{"00:00": 0, "09:30": 570, "9:05": 545, "23:59": 1439}
	for in, want := range cases {
		got, ok := ParseClock(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "24:00", "10:60", "10", "10:5", "ab:cd", "-1:00"} {
		_, ok := ParseClock(bad)
		assert.False(t, ok, bad)
		assert.Equal(t, -1, ToMinutes(bad), bad)
	}
}

func TestOverlapsExamples(t *testing.T) {
	assert.True(t, OverlapsClock("10:00", "11:00", "10:30", "11:30"))
	assert.False(t, OverlapsClock("10:00", "11:00", "11:00", "12:00"))
	assert.True(t, OverlapsClock("10:00", "12:00", "10:30", "11:00"))
	assert.False(t, OverlapsClock("10:00", "bad", "10:30", "11:00"))
}

func TestOverlapsIsSymmetric(t *testing.T) {
	points := []int{0, 30, 60, 90, 120}
	for _, s1 := range points {
		for _, e1 := range points {
			for _, s2 := range points {
				for _, e2 := range points {
					if s1 >= e1 || s2 >= e2 {
						continue
					}
					got := Overlaps(s1, e1, s2, e2)
					assert.Equal(t, got, Overlaps(s2, e2, s1, e1))

					intersects := false
					for m := 0; m < 120; m++ {
						if m >= s1 && m < e1 && m >= s2 && m < e2 {
							intersects = true
							break
						}
					}
					assert.Equal(t, intersects, got, "[%d,%d) vs [%d,%d)", s1, e1, s2, e2)
				}
			}
		}
	}
}

func TestAddMinutesAndFormat(t *testing.T) {
	assert.Equal(t, "11:00", AddMinutes("10:00", 60))
	assert.Equal(t, "09:45", AddMinutes("9:15", 30))
	assert.Equal(t, "bogus", AddMinutes("bogus", 60))
}

func TestParseDateAndAt(t *testing.T) {
	d, err := ParseDate("2025-03-03", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC), At(d, 630))

	_, err = ParseDate("03/03/2025", time.UTC)
	assert.Error(t, err)
}
