package sim

import (
	"fmt"
	"time"
)

// Time acceleration: one simulated day costs ~480ms of real time, a 99.44%
// compression of 86400s. Reported to clients as the round 98% figure the
// product advertises.
const (
	RealMillisPerSimulatedDay = 480
	RealSecondsPerDay         = 0.48
	AccelerationPercent       = 98
	HoursPerDay               = 24
)

// PeriodPreset is one of the fixed simulation horizons selectable through
// the control API.
type PeriodPreset struct {
	Name              string        `json:"name"`
	Days              int           `json:"days"`
	EstimatedRealTime time.Duration `json:"estimated_real_time"`
	Description       string        `json:"description"`
}

var periodPresets = []PeriodPreset{
	{Name: "1_month", Days: 30, Description: "30-day shakedown: onboarding, first payments, early churn"},
	{Name: "3_months", Days: 90, Description: "First quarter: seasonal curve effects become visible"},
	{Name: "6_months", Days: 180, Description: "Half year: release cadence and social flywheel"},
	{Name: "1_year", Days: 365, Description: "Full annual cycle incl. Q4 streaming peak"},
	{Name: "3_years", Days: 1095, Description: "Growth phases 1-2: 50k to 1.5M trajectory"},
	{Name: "6_years", Days: 2190, Description: "Early saturation phase against the 80M TAM"},
	{Name: "10_years", Days: 3650, Description: "Decade: full business cycle coverage"},
	{Name: "14_years", Days: 5110, Description: "Long horizon stress, 14 years"},
	{Name: "18_years", Days: 6570, Description: "Long horizon stress, 18 years"},
	{Name: "22_years", Days: 8030, Description: "Long horizon stress, 22 years"},
	{Name: "26_years", Days: 9490, Description: "Long horizon stress, 26 years"},
	{Name: "30_years", Days: 10950, Description: "Long horizon stress, 30 years"},
	{Name: "34_years", Days: 12410, Description: "Long horizon stress, 34 years"},
	{Name: "38_years", Days: 13870, Description: "Long horizon stress, 38 years"},
	{Name: "42_years", Days: 15330, Description: "Long horizon stress, 42 years"},
	{Name: "46_years", Days: 16790, Description: "Long horizon stress, 46 years"},
	{Name: "50_years", Days: 18250, Description: "Maximum horizon: memory-bounded 50-year run"},
}

// Periods returns the preset table in canonical order, with estimated real
// runtimes filled in.
func Periods() []PeriodPreset {
	out := make([]PeriodPreset, len(periodPresets))
	copy(out, periodPresets)
	for i := range out {
		out[i].EstimatedRealTime = EstimateRealTime(out[i].Days)
	}
	return out
}

// PeriodDays resolves a preset name to its day count.
func PeriodDays(name string) (int, bool) {
	for _, p := range periodPresets {
		if p.Name == name {
			return p.Days, true
		}
	}
	return 0, false
}

// EstimateRealTime reports how long a run of the given length takes at the
// fixed acceleration.
func EstimateRealTime(days int) time.Duration {
	return time.Duration(days) * RealMillisPerSimulatedDay * time.Millisecond
}

// Clock maps the run's real-time budget onto simulated calendar time. It
// only ever moves forward; the engine advances it one day (or one hour in
// detailed mode) at a time and reads the simulated instant back for event
// and snapshot stamps.
type Clock struct {
	start           time.Time
	current         time.Time
	day             int
	cumulativeHours float64
}

// NewClock starts simulated time at the given instant, day 0.
func NewClock(start time.Time) *Clock {
	return &Clock{start: start, current: start}
}

// AdvanceDay moves simulated time forward by exactly one calendar day.
func (c *Clock) AdvanceDay() {
	c.day++
	c.current = c.current.AddDate(0, 0, 1)
	c.cumulativeHours += HoursPerDay
}

// AdvanceHour moves simulated time forward by one hour (detailed mode).
// The day counter ticks when a full day has accumulated.
func (c *Clock) AdvanceHour() {
	c.current = c.current.Add(time.Hour)
	c.cumulativeHours++
	if d := int(c.cumulativeHours) / HoursPerDay; d > c.day {
		c.day = d
	}
}

// Now returns the current simulated instant.
func (c *Clock) Now() time.Time { return c.current }

// Start returns the simulated instant the run began at.
func (c *Clock) Start() time.Time { return c.start }

// Day returns the 1-indexed day counter (0 before the first step).
func (c *Clock) Day() int { return c.day }

// CumulativeHours returns total simulated hours advanced so far.
func (c *Clock) CumulativeHours() float64 { return c.cumulativeHours }

// ElapsedDays returns precise fractional days elapsed, the growth
// controller's time base.
func (c *Clock) ElapsedDays() float64 { return c.cumulativeHours / HoursPerDay }

// String renders the clock position for logs.
func (c *Clock) String() string {
	return fmt.Sprintf("day %d (%s)", c.day, c.current.Format("2006-01-02"))
}
