package sim

import (
	"fmt"
	"math"
	"time"
)

// Calibrated day-step rates that are not per-user-per-hour probabilities.
const (
	// 0.2% of the whole population churns per month, applied daily.
	dailyChurnRate = 0.002 / 30.0
	// Above this population a day never loses zero users to rounding.
	churnAlwaysAbove = 15000
	// Pool rotation per day once the sample is at capacity, so the pool
	// keeps representing recent cohorts instead of only the launch batch.
	poolRefreshPerDay = 10
	// Daily chance of an undirected growth-multiplier drift.
	marketDriftChance = 0.15
	// Daily chance a streaming platform retunes its ranking algorithm.
	algorithmShiftChance = 0.02
	// New releases the distributor pushes out per day, at most.
	maxReleasesPerDay = 10
	// Duty cycle: the share of each simulated hour the autopilot acts in.
	dutyCycle = 0.1
	// Stream curve: day-one baseline and exponential decay constant.
	dailyStreamBase = 50.0
	streamDecayDays = 60.0
	// Royalty payouts batch monthly and settle a few days later.
	payoutIntervalDays = 30
	payoutSettleDays   = 3
	// Pool activity window for the active-user ratio.
	activityWindow = 7 * 24 * time.Hour
	// Oldest transactions fall off once the ledger reaches this size.
	transactionHistoryCap = 10000
)

// StepDay advances the simulation by exactly one simulated day. It is the
// only place state mutates during a run; Run is a thin loop over it so
// tests can drive the engine day by day. A panic inside the step is
// recovered, logged as a critical system event and charged as an
// intervention; the day still counts as consumed so the calendar never
// stalls.
func (s *Simulation) StepDay() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		s.seedPopulation()
	}

	day := s.clock.Day() + 1
	simNow := s.clock.Now() // day start: stamps every event inside the day
	realNow := s.deps.Now()

	defer func() {
		if r := recover(); r != nil {
			for s.clock.CumulativeHours() < float64(day)*HoursPerDay {
				s.clock.AdvanceHour()
			}
			s.consecFailures++
			s.metrics.Autonomous.InterventionsRequired++
			s.metrics.Platform.ErrorRate = clamp(s.metrics.Platform.ErrorRate+0.001, 0, 1)
			s.emitLocked(s.gen.InternalFailureEvent(day, realNow, s.clock.Now(), fmt.Sprintf("%v", r)))
			err = fmt.Errorf("day %d step panicked: %v", day, r)
		}
	}()

	if s.cfg.DetailedMode {
		s.stepDetailedLocked(day, realNow, simNow)
	} else {
		s.clock.AdvanceDay()
		s.stepFastLocked(day, realNow, simNow)
	}

	s.closeDayLocked(realNow)
	s.consecFailures = 0
	return nil
}

// stepFastLocked is the production day step: population moves through
// cohort counters, individual behavior is sampled from the pool, and a
// bounded set of representative events lands in the log while the counters
// carry the true volumes.
func (s *Simulation) stepFastLocked(day int, realNow, simNow time.Time) {
	s.metrics.ResetDaily()
	s.market.AdvanceDay()

	s.allocateUsersLocked(day, realNow, simNow)
	s.applyUpgradesLocked(day)
	s.distributeReleasesLocked(day, realNow, simNow, maxReleasesPerDay)
	s.walkCatalogLocked(day, realNow, simNow)
	s.publishSocialLocked(day, realNow, simNow)
	s.igniteViralMomentsLocked(day, realNow, simNow)
	s.applyChurnLocked(day, realNow, simNow)
	s.platformHealthLocked(day, realNow, simNow)
	s.marketDriftLocked(day, realNow, simNow)
	s.adaptAlgorithmsLocked(day)
	s.refreshSamplesLocked(simNow)
	s.settlePayoutsLocked(day, simNow)
	s.refreshPoolLocked()
}

// allocateUsersLocked creates today's new users along the growth
// trajectory, shaped by the market multipliers and the seasonal curves.
func (s *Simulation) allocateUsersLocked(day int, realNow, simNow time.Time) {
	econ := s.market.EconomicMultiplier()
	activeRatio := s.users.ActiveRatio(simNow, activityWindow)
	viral := s.market.ViralGrowthMultiplier(s.users.Total(), activeRatio)

	base := s.growth.DailyAllocation(s.clock.ElapsedDays(), s.users.Total(), econ, viral)
	season := SeasonalModifier("user_growth", simNow) * DayOfWeekModifier("signups", simNow)
	count := int64(math.Round(float64(base) * season))
	s.createUsersLocked(count, day, realNow, simNow, true)
}

// createUsersLocked admits count new users: materialized into the sample
// pool while it has capacity, cohort counters beyond that. The first few
// materialized users produce representative signup and first-payment
// events.
func (s *Simulation) createUsersLocked(count int64, day int, realNow, simNow time.Time, emit bool) {
	if count <= 0 {
		return
	}
	var firstPayments float64
	var materialized int64
	emitted := 0
	for materialized < count && s.users.HasSampleCapacity() {
		u := s.gen.NewUser(simNow)
		s.users.AdmitUser(u)
		materialized++
		firstPayments += u.MonthlyRevenue
		if emit && emitted < maxSampledEventsPerPath {
			s.emitLocked(s.gen.SignupEvent(u, day, realNow, simNow, 1))
			ev, txn := s.gen.PaymentEvent(u.ID, u.MonthlyRevenue, day, realNow, simNow)
			s.recordTransactionLocked(txn)
			s.emitLocked(ev)
			emitted++
		}
	}
	if rest := count - materialized; rest > 0 {
		s.users.AddUsers(rest, BlendedTierDistribution(), ArchetypeDistribution(), WeightedAvgRevenue())
		firstPayments += float64(rest) * WeightedAvgRevenue()
	}
	s.metrics.Users.NewToday += count
	s.totalSignups += count
	s.metrics.Revenue.Daily += firstPayments
}

// applyUpgradesLocked moves sampled users up the tier ladder
// (monthly -> yearly -> lifetime) at the pricing engine's nudge rate and
// adjusts MRR by the plan delta.
func (s *Simulation) applyUpgradesLocked(day int) {
	expected := int(math.Floor(float64(s.users.PoolSize()) * s.gen.Probabilities().UpgradePerHour * HoursPerDay * dutyCycle))
	for i := 0; i < expected; i++ {
		u := s.users.RandomSample(s.rng, func(u *SimulatedUser) bool { return u.Tier != TierLifetime })
		if u == nil {
			return
		}
		s.upgradeUserLocked(u, day)
	}
}

func (s *Simulation) upgradeUserLocked(u *SimulatedUser, day int) {
	from := u.Tier
	to := TierYearly
	if from == TierYearly {
		to = TierLifetime
	}
	s.users.ShiftTier(from, to, TierMonthlyRevenue[to]-TierMonthlyRevenue[from])
	u.Tier = to
	u.MonthlyRevenue = TierMonthlyRevenue[to]
	u.LifetimeValue = u.MonthlyRevenue * expectedMonthsByTier[to]
	// Upgrading is a commitment signal; churn propensity drops hard.
	u.ChurnRisk = math.Max(0.01, u.ChurnRisk*0.6)
	if s.cfg.EnableAutonomousSystems {
		s.metrics.Autonomous.DecisionsMade++
		s.autonomous["pricing_engine"] = fmt.Sprintf("last upgrade nudge day %d", day)
	}
}

// distributeReleasesLocked pushes new catalog entries out through the
// release distributor, owned by sampled pool users.
func (s *Simulation) distributeReleasesLocked(day int, realNow, simNow time.Time, capToday int) {
	season := SeasonalModifier("releases", simNow)
	expected := int(math.Floor(float64(s.users.PoolSize()) * s.gen.Probabilities().ReleasePerHour * HoursPerDay * 0.05 * season))
	if expected > capToday {
		expected = capToday
	}
	for i := 0; i < expected; i++ {
		if !s.mintReleaseLocked(day, realNow, simNow, i < maxSampledEventsPerPath) {
			return
		}
	}
	if s.cfg.EnableAutonomousSystems && expected > 0 {
		s.autonomous["release_distributor"] = fmt.Sprintf("%d releases in catalog", len(s.releases))
	}
}

// mintReleaseLocked creates one release for a sampled owner. Returns false
// when the pool has nobody to own it.
func (s *Simulation) mintReleaseLocked(day int, realNow, simNow time.Time, emit bool) bool {
	owner := s.users.RandomSample(s.rng, nil)
	if owner == nil {
		return false
	}
	r := s.gen.NewRelease(owner.ID, simNow)
	owner.TotalReleases++
	s.releases = append(s.releases, r)
	s.active = append(s.active, r)
	if s.cfg.EnableAutonomousSystems {
		s.metrics.Autonomous.ReleasesDistributed++
		s.metrics.Autonomous.DecisionsMade++
	}
	if emit {
		s.emitLocked(s.gen.ReleaseEvent(r, day, realNow, simNow, s.gen.Probabilities().ReleasePerHour))
	}
	return true
}

// walkCatalogLocked runs the daily stream curve over every active release:
// a first-day baseline decaying exponentially with age, amplified for
// viral releases and shaped by genre and season. Releases whose curve has
// decayed under the retirement horizon leave the active set, which is what
// keeps a 50-year run from walking half a million dead releases every day.
func (s *Simulation) walkCatalogLocked(day int, realNow, simNow time.Time) {
	season := SeasonalModifier("streaming", simNow) * DayOfWeekModifier("streaming", simNow)
	kept := s.active[:0]
	var dayStreams int64
	var dayRevenue float64
	emitted := 0
	for _, r := range s.active {
		age := simNow.Sub(r.ReleasedAt).Hours() / HoursPerDay
		if age > releaseRetirementDays {
			r.DailyStreams = 0
			continue
		}
		kept = append(kept, r)

		viralMult := 1.0
		if r.IsViral {
			viralMult = ViralStreamMultiplier
		}
		base := dailyStreamBase * math.Exp(-math.Max(0, age)/streamDecayDays)
		streams := int64(base * viralMult * GenreProfileFor(r.Genre).Streams * season * (0.5 + s.rng.Float64()))
		if streams < 0 {
			streams = 0
		}
		r.DailyStreams = streams
		r.TotalStreams += streams
		if streams > r.PeakStreams {
			r.PeakStreams = streams
		}
		revenue := float64(streams) * revenuePerStream
		r.Revenue += revenue
		dayStreams += streams
		dayRevenue += revenue

		if emitted < maxSampledEventsPerPath && streams > 0 {
			s.emitLocked(s.gen.StreamEvent(r, streams, revenue, day, realNow, simNow))
			emitted++
		}
	}
	s.active = kept
	s.users.AddStreams(dayStreams)
	s.metrics.Streams.Daily += dayStreams
	s.metrics.Revenue.Daily += dayRevenue
}

// publishSocialLocked counts the day's autonomous social output and logs a
// few representative posts.
func (s *Simulation) publishSocialLocked(day int, realNow, simNow time.Time) {
	season := SeasonalModifier("social", simNow) * DayOfWeekModifier("social", simNow)
	expected := int64(math.Floor(float64(s.users.PoolSize()) * s.gen.Probabilities().SocialPostPerHour * HoursPerDay * dutyCycle * season))
	if expected <= 0 {
		return
	}
	s.metrics.Social.PostsToday += expected
	if s.cfg.EnableAutonomousSystems {
		s.metrics.Autonomous.PostsPublished += expected
		s.metrics.Autonomous.DecisionsMade += expected
		s.autonomous["social_scheduler"] = fmt.Sprintf("published %d posts day %d", expected, day)
	}
	for i := int64(0); i < int64(maxSampledEventsPerPath) && i < expected; i++ {
		u := s.users.RandomSample(s.rng, nil)
		if u == nil {
			return
		}
		ev := s.gen.SocialPostEvent(u, day, realNow, simNow)
		if data, ok := ev.Data.(SocialData); ok && data.IsViral {
			s.metrics.Social.ViralPosts++
			u.ViralPotential = clamp(u.ViralPotential+0.05, 0, 1)
		}
		s.emitLocked(ev)
	}
}

// igniteViralMomentsLocked rolls every non-viral active release against
// its viral-moment probability. A hit flags the release, multiplies its
// stream curve and has the autopilot launch an amplification campaign.
func (s *Simulation) igniteViralMomentsLocked(day int, realNow, simNow time.Time) {
	engagement := s.poolAvgEngagementLocked()
	emitted := 0
	for _, r := range s.active {
		if r.IsViral {
			continue
		}
		if !s.rng.Chance(s.gen.ViralMomentProbability(r, engagement)) {
			continue
		}
		r.IsViral = true
		viralDate := simNow
		r.ViralDate = &viralDate
		s.metrics.Streams.ViralReleases++
		if s.cfg.EnableAutonomousSystems {
			s.metrics.Autonomous.CampaignsLaunched++
			s.metrics.Autonomous.DecisionsMade++
		}
		if emitted < maxSampledEventsPerPath {
			s.emitLocked(s.gen.ViralMomentEvent(r, ViralStreamMultiplier, day, realNow, simNow, s.gen.Probabilities().ViralMomentBase))
			emitted++
		}
	}
}

// applyChurnLocked removes today's churned users and immediately backfills
// the same headcount, so churn shapes the population mix without bending
// the growth trajectory. A few churners are sampled from the pool for the
// event log and their records destroyed.
func (s *Simulation) applyChurnLocked(day int, realNow, simNow time.Time) {
	total := s.users.Total()
	churned := int64(math.Floor(float64(total) * dailyChurnRate))
	if total > churnAlwaysAbove && churned < 1 {
		churned = 1
	}
	if churned <= 0 {
		return
	}

	sampled := int64(0)
	for sampled < maxSampledEventsPerPath && sampled < churned {
		u := s.users.RandomSample(s.rng, func(u *SimulatedUser) bool { return u.Tier != TierLifetime })
		if u == nil {
			break
		}
		s.emitLocked(s.gen.ChurnEvent(u, day, realNow, simNow, s.gen.ChurnProbability(u)))
		s.users.RemoveSample(u.ID)
		sampled++
	}

	s.users.RemoveUsers(churned)
	s.metrics.Users.ChurnedToday += churned
	s.totalChurn += churned

	s.createUsersLocked(churned, day, realNow, simNow, false)
}

// platformHealthLocked heals the platform gauges toward their baselines,
// then rolls for an incident when failures are enabled. Every incident
// costs a sliver of uptime and an intervention; critical ones additionally
// land on the final report's issue list.
func (s *Simulation) platformHealthLocked(day int, realNow, simNow time.Time) {
	p := &s.metrics.Platform
	p.Uptime = clamp(p.Uptime+(99.99-p.Uptime)*0.05, 0, 99.99)
	p.ErrorRate = clamp(p.ErrorRate+(0.001-p.ErrorRate)*0.1, 0, 1)
	p.ResponseTimeMs = clamp(p.ResponseTimeMs+s.rng.Range(-8, 8), 80, 400)
	p.QueueBacklog = int64(s.rng.Between(0, 40))
	p.ActiveWorkflows = 6 + p.QueueBacklog/10

	if !s.cfg.EnableSystemFailures {
		return
	}
	ev, ok := s.gen.SystemIncident(day, realNow, simNow)
	if !ok {
		return
	}
	s.emitLocked(ev)
	data, _ := ev.Data.(SystemData)
	p.Uptime = clamp(p.Uptime-0.001, 0, 100)
	p.ErrorRate = clamp(p.ErrorRate+0.002*data.Severity, 0, 1)
	p.ResponseTimeMs = clamp(p.ResponseTimeMs+120*data.Severity, 80, 400)
	s.metrics.Autonomous.InterventionsRequired++
	if data.AutoResolved {
		if s.cfg.EnableAutonomousSystems {
			s.metrics.Autonomous.DecisionsMade++
			s.autonomous["anomaly_detector"] = fmt.Sprintf("auto-resolved %s day %d", data.Kind, day)
		}
	} else {
		s.criticalIssues = append(s.criticalIssues, fmt.Sprintf("day %d: unresolved %s incident", day, data.Kind))
	}
}

// marketDriftLocked rolls the day's market events and lets their impact
// bleed into the growth multiplier, plus an occasional undirected drift.
func (s *Simulation) marketDriftLocked(day int, realNow, simNow time.Time) {
	if !s.cfg.EnableMarketFluctuations {
		return
	}
	if ev, ok := s.gen.MarketEvent(day, realNow, simNow); ok {
		s.emitLocked(ev)
		if data, ok := ev.Data.(MarketData); ok {
			s.market.AdjustGrowthMultiplier(data.Impact * 0.25)
		}
	}
	if s.rng.Chance(marketDriftChance) {
		s.market.AdjustGrowthMultiplier(s.rng.Range(-0.05, 0.05))
	}
}

// adaptAlgorithmsLocked models streaming platforms retuning their ranking
// algorithms; the adaptation layer retrains against the new one.
func (s *Simulation) adaptAlgorithmsLocked(day int) {
	if !s.cfg.EnableAutonomousSystems {
		return
	}
	if !s.rng.Chance(algorithmShiftChance) {
		return
	}
	s.metrics.Autonomous.DecisionsMade++
	s.autonomous["algorithm_adaptation"] = fmt.Sprintf("retuned day %d", day)
}

// refreshSamplesLocked walks the pool once: followers compound with
// engagement, and roughly a third of the pool shows activity today.
func (s *Simulation) refreshSamplesLocked(simNow time.Time) {
	s.users.EachSample(func(u *SimulatedUser) {
		growth := float64(u.SocialFollowers) * u.EngagementRate * s.rng.Range(0, 0.004)
		u.SocialFollowers += int64(growth) + int64(s.rng.Between(0, 2))
		if s.rng.Chance(0.3) {
			u.LastActiveAt = simNow
		}
	})
}

// refreshPoolLocked rotates a handful of records out of a full pool so the
// sample keeps tracking recent cohorts. Rotation only touches the
// materialized records, never the population counters.
func (s *Simulation) refreshPoolLocked() {
	if s.users.HasSampleCapacity() {
		return
	}
	for i := 0; i < poolRefreshPerDay; i++ {
		u := s.users.RandomSample(s.rng, nil)
		if u == nil {
			return
		}
		s.users.RemoveSample(u.ID)
	}
}

// pendingPayout tracks an opened royalty batch until it settles.
type pendingPayout struct {
	txn    *SimulatedTransaction
	dueDay int
}

// settlePayoutsLocked completes royalty payouts that have cleared their
// settlement delay and opens a new monthly batch on payout days.
func (s *Simulation) settlePayoutsLocked(day int, simNow time.Time) {
	remaining := s.pendingPayouts[:0]
	for _, p := range s.pendingPayouts {
		if day >= p.dueDay {
			processed := simNow
			p.txn.Status = TxnCompleted
			p.txn.ProcessedAt = &processed
			continue
		}
		remaining = append(remaining, p)
	}
	s.pendingPayouts = remaining

	if day%payoutIntervalDays != 0 {
		return
	}
	var monthStreams int64
	for _, v := range s.streamRing {
		monthStreams += v
	}
	amount := float64(monthStreams) * revenuePerStream
	if amount <= 0 {
		return
	}
	recipient := "artist_batch"
	if u := s.users.RandomSample(s.rng, nil); u != nil {
		recipient = u.ID
	}
	txn := &SimulatedTransaction{
		ID:        s.gen.NextTransactionID(),
		UserID:    recipient,
		Type:      TxnPayout,
		Amount:    amount,
		Currency:  "USD",
		Status:    TxnPending,
		CreatedAt: simNow,
	}
	s.recordTransactionLocked(txn)
	s.pendingPayouts = append(s.pendingPayouts, pendingPayout{txn: txn, dueDay: day + payoutSettleDays})
}

func (s *Simulation) recordTransactionLocked(txn *SimulatedTransaction) {
	s.transactions = append(s.transactions, txn)
	if len(s.transactions) > transactionHistoryCap {
		s.transactions = s.transactions[len(s.transactions)-transactionHistoryCap:]
	}
}

// closeDayLocked recomputes the derived metric block, accrues the day's
// revenue and publishes the finished day to Status readers.
func (s *Simulation) closeDayLocked(realNow time.Time) {
	// Subscription renewals recognize daily at MRR/30 alongside the day's
	// new payments and stream royalties.
	s.metrics.Revenue.Daily += s.metrics.Revenue.MRR / 30

	s.streamRing[s.ringIdx] = s.metrics.Streams.Daily
	s.ringIdx = (s.ringIdx + 1) % len(s.streamRing)

	s.syncAggregatesLocked()
	s.metrics.Revenue.Lifetime += s.metrics.Revenue.Daily
	s.metrics.Timestamp = realNow
	s.metrics.SimTime = s.clock.Now()
	s.lastCompleted = s.metrics.Copy()
}
