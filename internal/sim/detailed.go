package sim

import (
	"math"
	"time"
)

// stepDetailedLocked is the fidelity mode: growth, upgrades, releases,
// streams and social activity tick hour by hour with the hour-of-day
// curves instead of aggregating a whole day at once. Same trajectory, same
// invariants, roughly 24x the work; meant for demos and short horizons.
func (s *Simulation) stepDetailedLocked(day int, realNow, simNow time.Time) {
	s.metrics.ResetDaily()
	s.market.AdvanceDay()

	kept := s.active[:0]
	for _, r := range s.active {
		r.DailyStreams = 0
		if simNow.Sub(r.ReleasedAt).Hours()/HoursPerDay > releaseRetirementDays {
			continue
		}
		kept = append(kept, r)
	}
	s.active = kept

	released := 0
	for h := 0; h < HoursPerDay; h++ {
		hourNow := s.clock.Now()
		s.clock.AdvanceHour()
		// Representative events three times a day, not every hour.
		emit := h%8 == 0

		s.allocateHourLocked(day, realNow, hourNow, emit)
		s.upgradeHourLocked(day)
		released += s.releaseHourLocked(day, realNow, hourNow, released, emit)
		s.streamHourLocked(day, realNow, hourNow, emit)
		s.socialHourLocked(day, realNow, hourNow, emit)
	}

	s.igniteViralMomentsLocked(day, realNow, simNow)
	s.applyChurnLocked(day, realNow, simNow)
	s.platformHealthLocked(day, realNow, simNow)
	s.marketDriftLocked(day, realNow, simNow)
	s.adaptAlgorithmsLocked(day)
	s.refreshSamplesLocked(s.clock.Now())
	s.settlePayoutsLocked(day, s.clock.Now())
	s.refreshPoolLocked()
}

// stochasticRound keeps fractional hourly expectations honest: 0.25 per
// hour really does average 6 per day.
func (s *Simulation) stochasticRound(expected float64) int64 {
	n := math.Floor(expected)
	if s.rng.Chance(expected - n) {
		n++
	}
	return int64(n)
}

func (s *Simulation) allocateHourLocked(day int, realNow, hourNow time.Time, emit bool) {
	econ := s.market.EconomicMultiplier()
	viral := s.market.ViralGrowthMultiplier(s.users.Total(), s.users.ActiveRatio(hourNow, activityWindow))
	base := s.growth.HourlyAllocation(s.clock.ElapsedDays(), s.users.Total(), econ, viral)
	season := SeasonalModifier("user_growth", hourNow) * DayOfWeekModifier("signups", hourNow)
	count := int64(math.Round(float64(base) * season))
	s.createUsersLocked(count, day, realNow, hourNow, emit)
}

func (s *Simulation) upgradeHourLocked(day int) {
	expected := float64(s.users.PoolSize()) * s.gen.Probabilities().UpgradePerHour * dutyCycle
	for i := int64(0); i < s.stochasticRound(expected); i++ {
		u := s.users.RandomSample(s.rng, func(u *SimulatedUser) bool { return u.Tier != TierLifetime })
		if u == nil {
			return
		}
		s.upgradeUserLocked(u, day)
	}
}

func (s *Simulation) releaseHourLocked(day int, realNow, hourNow time.Time, alreadyReleased int, emit bool) int {
	season := SeasonalModifier("releases", hourNow)
	expected := float64(s.users.PoolSize()) * s.gen.Probabilities().ReleasePerHour * 0.05 * season
	count := int(s.stochasticRound(expected))
	if alreadyReleased+count > maxReleasesPerDay {
		count = maxReleasesPerDay - alreadyReleased
	}
	minted := 0
	for i := 0; i < count; i++ {
		if !s.mintReleaseLocked(day, realNow, hourNow, emit && i == 0) {
			break
		}
		minted++
	}
	return minted
}

func (s *Simulation) streamHourLocked(day int, realNow, hourNow time.Time, emit bool) {
	season := SeasonalModifier("streaming", hourNow) * DayOfWeekModifier("streaming", hourNow)
	hourCurve := HourOfDayModifier("streaming", hourNow)
	var hourStreams int64
	var hourRevenue float64
	emitted := false
	for _, r := range s.active {
		age := hourNow.Sub(r.ReleasedAt).Hours() / HoursPerDay
		viralMult := 1.0
		if r.IsViral {
			viralMult = ViralStreamMultiplier
		}
		base := dailyStreamBase / HoursPerDay * math.Exp(-math.Max(0, age)/streamDecayDays)
		streams := s.stochasticRound(base * viralMult * GenreProfileFor(r.Genre).Streams * season * hourCurve * (0.5 + s.rng.Float64()))
		if streams <= 0 {
			continue
		}
		r.DailyStreams += streams
		r.TotalStreams += streams
		if r.DailyStreams > r.PeakStreams {
			r.PeakStreams = r.DailyStreams
		}
		revenue := float64(streams) * revenuePerStream
		r.Revenue += revenue
		hourStreams += streams
		hourRevenue += revenue
		if emit && !emitted {
			s.emitLocked(s.gen.StreamEvent(r, streams, revenue, day, realNow, hourNow))
			emitted = true
		}
	}
	s.users.AddStreams(hourStreams)
	s.metrics.Streams.Daily += hourStreams
	s.metrics.Revenue.Daily += hourRevenue
}

func (s *Simulation) socialHourLocked(day int, realNow, hourNow time.Time, emit bool) {
	season := SeasonalModifier("social", hourNow) * DayOfWeekModifier("social", hourNow)
	hourCurve := HourOfDayModifier("social", hourNow)
	expected := s.stochasticRound(float64(s.users.PoolSize()) * s.gen.Probabilities().SocialPostPerHour * dutyCycle * season * hourCurve)
	if expected <= 0 {
		return
	}
	s.metrics.Social.PostsToday += expected
	if s.cfg.EnableAutonomousSystems {
		s.metrics.Autonomous.PostsPublished += expected
		s.metrics.Autonomous.DecisionsMade += expected
	}
	if !emit {
		return
	}
	u := s.users.RandomSample(s.rng, nil)
	if u == nil {
		return
	}
	ev := s.gen.SocialPostEvent(u, day, realNow, hourNow)
	if data, ok := ev.Data.(SocialData); ok && data.IsViral {
		s.metrics.Social.ViralPosts++
	}
	s.emitLocked(ev)
}
