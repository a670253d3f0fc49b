package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodPresets(t *testing.T) {
	periods := Periods()
	require.Len(t, periods, 17)

	assert.Equal(t, "1_month", periods[0].Name)
	assert.Equal(t, 30, periods[0].Days)
	assert.Equal(t, "50_years", periods[len(periods)-1].Name)
	assert.Equal(t, 18250, periods[len(periods)-1].Days)

	// Horizons are strictly increasing and every preset carries a
	// runtime estimate at the fixed acceleration.
	for i, p := range periods {
		assert.NotEmpty(t, p.Description, p.Name)
		assert.Equal(t, EstimateRealTime(p.Days), p.EstimatedRealTime, p.Name)
		if i > 0 {
			assert.Greater(t, p.Days, periods[i-1].Days)
		}
	}
}

func TestPeriodDays(t *testing.T) {
	days, ok := PeriodDays("1_year")
	require.True(t, ok)
	assert.Equal(t, 365, days)

	days, ok = PeriodDays("10_years")
	require.True(t, ok)
	assert.Equal(t, 3650, days)

	_, ok = PeriodDays("2_fortnights")
	assert.False(t, ok)
}

func TestEstimateRealTime(t *testing.T) {
	// 30 simulated days at 480ms each is 14.4 real seconds.
	assert.Equal(t, 14400*time.Millisecond, EstimateRealTime(30))
	assert.Equal(t, 480*time.Millisecond, EstimateRealTime(1))
	// The advertised maximum: a 50-year run in under two and a half hours.
	assert.Equal(t, 8760*time.Second, EstimateRealTime(18250))
}

func TestClockAdvanceDay(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start)

	assert.Equal(t, 0, c.Day(), "day counter starts at zero")
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Start())

	c.AdvanceDay()
	assert.Equal(t, 1, c.Day())
	assert.Equal(t, start.AddDate(0, 0, 1), c.Now())

	for i := 0; i < 364; i++ {
		c.AdvanceDay()
	}
	assert.Equal(t, 365, c.Day())
	assert.Equal(t, start.AddDate(0, 0, 365), c.Now())
	assert.Equal(t, 365.0, c.ElapsedDays())
}

func TestClockAdvanceHourTicksDayAtMidnight(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start)

	for i := 0; i < 23; i++ {
		c.AdvanceHour()
		assert.Equal(t, 0, c.Day(), "day must not tick before 24 cumulative hours")
	}
	c.AdvanceHour()
	assert.Equal(t, 1, c.Day())
	assert.Equal(t, 24.0, c.CumulativeHours())
	assert.Equal(t, 1.0, c.ElapsedDays())

	c.AdvanceHour()
	assert.Equal(t, 1, c.Day())
	assert.InDelta(t, 25.0/24.0, c.ElapsedDays(), 1e-9)
}

func TestClockString(t *testing.T) {
	c := NewClock(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	c.AdvanceDay()
	assert.Equal(t, "day 1 (2025-01-02)", c.String())
}
