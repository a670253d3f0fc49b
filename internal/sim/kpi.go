package sim

import (
	"fmt"
	"time"
)

// BenchmarkCAC is the customer-acquisition-cost benchmark simulated LTV is
// judged against.
const BenchmarkCAC = 50.0

// IndustryBenchmarks are the static plan constants the product quotes;
// exposed through the control API and echoed in reports.
type IndustryBenchmarks struct {
	TotalAddressableMarket int64   `json:"total_addressable_market"`
	MonthlyPrice           float64 `json:"monthly_price"`
	YearlyPrice            float64 `json:"yearly_price"`
	LifetimePrice          float64 `json:"lifetime_price"`
	StreamRPM              float64 `json:"stream_rpm"`
	CAC                    float64 `json:"cac"`
	BlendedMonthlyRevenue  float64 `json:"blended_monthly_revenue"`
	ExpectedLTV            float64 `json:"expected_ltv"`
	Year2Users             int64   `json:"year2_users"`
	Year3Users             int64   `json:"year3_users"`
}

// Benchmarks returns the plan constants.
func Benchmarks() IndustryBenchmarks {
	return IndustryBenchmarks{
		TotalAddressableMarket: int64(TAM),
		MonthlyPrice:           TierMonthlyRevenue[TierMonthly],
		YearlyPrice:            TierMonthlyRevenue[TierYearly] * 12,
		LifetimePrice:          TierMonthlyRevenue[TierLifetime] * 12,
		StreamRPM:              StreamRPM,
		CAC:                    BenchmarkCAC,
		BlendedMonthlyRevenue:  WeightedAvgRevenue(),
		ExpectedLTV:            WeightedAvgLTV(),
		Year2Users:             Year2Target,
		Year3Users:             Year3Target,
	}
}

// KPIBlock is the derived business scorecard of a finished run.
type KPIBlock struct {
	UserGrowthRate       float64 `json:"user_growth_rate"`
	RevenueGrowthRate    float64 `json:"revenue_growth_rate"`
	ChurnRate            float64 `json:"churn_rate"`
	LTV                  float64 `json:"ltv"`
	CAC                  float64 `json:"cac"`
	LTVToCAC             float64 `json:"ltv_to_cac"`
	ViralCoefficient     float64 `json:"viral_coefficient"`
	NPS                  float64 `json:"nps"`
	SystemUptime         float64 `json:"system_uptime"`
	AutonomousEfficiency float64 `json:"autonomous_efficiency"`
}

// SystemCheck is one health assertion evaluated at the end of a run.
type SystemCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // pass, warn, fail
	Detail string `json:"detail"`
}

// SystemTestResults tallies the end-of-run health checks.
type SystemTestResults struct {
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	Warnings       int           `json:"warnings"`
	Checks         []SystemCheck `json:"checks"`
	CriticalIssues []string      `json:"critical_issues"`
}

// SimulationResult is everything a finished run leaves behind.
type SimulationResult struct {
	Config            Config            `json:"config"`
	Seed              int64             `json:"seed"`
	StartedAt         time.Time         `json:"started_at"`
	EndedAt           time.Time         `json:"ended_at"`
	RealDuration      time.Duration     `json:"real_duration"`
	SimulatedDays     int               `json:"simulated_days"`
	SimulatedDuration time.Duration     `json:"simulated_duration"`
	Completed         bool              `json:"completed"`
	FinalMetrics      SystemMetrics     `json:"final_metrics"`
	FinalMarket       MarketConditions  `json:"final_market"`
	Snapshots         []Snapshot        `json:"snapshots"`
	Events            []SimulationEvent `json:"events"`
	KPIs              KPIBlock          `json:"kpis"`
	SystemTests       SystemTestResults `json:"system_tests"`
	Recommendations   []string          `json:"recommendations"`
	TotalSignups      int64             `json:"total_signups"`
	TotalChurn        int64             `json:"total_churn"`
}

// Verdict is the one-line health summary shown in reports and logs.
func (r *SimulationResult) Verdict() string {
	switch {
	case r.SystemTests.Failed > 0:
		return "❌ CRITICAL ISSUES FOUND"
	case r.SystemTests.Warnings > 0:
		return "⚠️ WARNINGS DETECTED"
	default:
		return "✅ ALL TESTS PASSED"
	}
}

// finalize closes the run out: final snapshot, KPI derivation, system
// tests, recommendations, state transition. The completion observer fires
// outside the lock so it may call back into the control surface.
func (s *Simulation) finalize(aborted bool) (*SimulationResult, error) {
	s.mu.Lock()

	s.endedReal = s.deps.Now()
	completed := !aborted && !s.stopRequested && s.clock.Day() >= s.cfg.DaysToSimulate
	if completed {
		s.state = StateCompleted
	} else {
		s.state = StateStopped
	}

	s.takeSnapshotLocked("final")

	kpis := s.deriveKPIsLocked()
	tests, recommendations := s.systemTestsLocked(kpis)

	res := &SimulationResult{
		Config:            s.cfg,
		Seed:              s.rng.Seed(),
		StartedAt:         s.startedReal,
		EndedAt:           s.endedReal,
		RealDuration:      s.endedReal.Sub(s.startedReal),
		SimulatedDays:     s.clock.Day(),
		SimulatedDuration: time.Duration(s.clock.Day()) * HoursPerDay * time.Hour,
		Completed:         completed,
		FinalMetrics:      s.metrics.Copy(),
		FinalMarket:       s.market.Conditions(),
		Snapshots:         append([]Snapshot(nil), s.snapshots...),
		Events:            append([]SimulationEvent(nil), s.events...),
		KPIs:              kpis,
		SystemTests:       tests,
		Recommendations:   recommendations,
		TotalSignups:      s.totalSignups,
		TotalChurn:        s.totalChurn,
	}
	s.result = res
	onComplete := s.deps.Observers.OnComplete
	s.mu.Unlock()

	s.deps.Logger.Info("simulation finished", map[string]interface{}{
		"run_id":  res.Config.RunID,
		"days":    res.SimulatedDays,
		"users":   res.FinalMetrics.Users.Total,
		"mrr":     res.FinalMetrics.Revenue.MRR,
		"verdict": res.Verdict(),
	})
	if onComplete != nil {
		onComplete(res)
	}
	return res, nil
}

// deriveKPIsLocked computes the scorecard from the final metric block and
// the run's lifetime counters.
func (s *Simulation) deriveKPIsLocked() KPIBlock {
	m := s.metrics
	initial := float64(s.cfg.InitialUsers)
	finalUsers := float64(m.Users.Total)

	growth := 0.0
	switch {
	case initial > 0:
		growth = (finalUsers - initial) / initial * 100
	case finalUsers > 0:
		growth = 100 // bootstrapped from zero
	}

	revenueGrowth := 0.0
	switch {
	case s.initialMRR > 0:
		revenueGrowth = (m.Revenue.MRR - s.initialMRR) / s.initialMRR * 100
	case m.Revenue.MRR > 0:
		revenueGrowth = 100
	}

	churn := 0.0
	if denom := initial + float64(s.totalSignups); denom > 0 {
		churn = float64(s.totalChurn) / denom * 100
	}

	ltv := 0.0
	if m.Users.Total > 0 {
		ltv = m.Revenue.Lifetime / finalUsers
	}

	viral := 0.0
	if n := len(s.releases); n > 0 {
		viral = float64(m.Streams.ViralReleases) / float64(n) * 10
	}

	efficiency := 100.0
	if made := m.Autonomous.DecisionsMade; made > 0 {
		efficiency = clamp(float64(made-m.Autonomous.InterventionsRequired)/float64(made)*100, 0, 100)
	}

	return KPIBlock{
		UserGrowthRate:       growth,
		RevenueGrowthRate:    revenueGrowth,
		ChurnRate:            churn,
		LTV:                  ltv,
		CAC:                  BenchmarkCAC,
		LTVToCAC:             ltv / BenchmarkCAC,
		ViralCoefficient:     viral,
		NPS:                  clamp(50+growth/10-churn*2, -100, 100),
		SystemUptime:         m.Platform.Uptime,
		AutonomousEfficiency: efficiency,
	}
}

// systemTestsLocked runs the end-of-run health checks and derives the
// recommendation list from whatever crossed a threshold.
func (s *Simulation) systemTestsLocked(k KPIBlock) (SystemTestResults, []string) {
	m := s.metrics
	res := SystemTestResults{
		CriticalIssues: append([]string(nil), s.criticalIssues...),
	}
	var recommendations []string

	add := func(c SystemCheck, recommendation string) {
		res.Checks = append(res.Checks, c)
		switch c.Status {
		case "pass":
			res.Passed++
			return
		case "warn":
			res.Warnings++
		case "fail":
			res.Failed++
			res.CriticalIssues = append(res.CriticalIssues, c.Detail)
		}
		if recommendation != "" {
			recommendations = append(recommendations, recommendation)
		}
	}

	usersCheck := SystemCheck{Name: "users_present", Status: "pass",
		Detail: fmt.Sprintf("%d users at end of run", m.Users.Total)}
	if m.Users.Total <= 0 {
		usersCheck.Status = "fail"
		usersCheck.Detail = "population collapsed to zero"
	}
	add(usersCheck, "Growth engine produced no users: check lead generation and signup conversion end to end.")

	mrrFloor := float64(s.cfg.InitialUsers) * s.cfg.MRRFloorPerUser
	mrrCheck := SystemCheck{Name: "mrr_above_floor", Status: "pass",
		Detail: fmt.Sprintf("MRR $%.2f against floor $%.2f", m.Revenue.MRR, mrrFloor)}
	if m.Revenue.MRR < mrrFloor {
		mrrCheck.Status = "fail"
		mrrCheck.Detail = fmt.Sprintf("MRR $%.2f under the $%.2f plan floor", m.Revenue.MRR, mrrFloor)
	}
	add(mrrCheck, "Revenue below plan: revisit pricing tiers and the annual upsell flow before scaling spend.")

	uptimeCheck := SystemCheck{Name: "uptime", Detail: fmt.Sprintf("%.3f%% uptime", k.SystemUptime)}
	switch {
	case k.SystemUptime > 99.5:
		uptimeCheck.Status = "pass"
	case k.SystemUptime > 99.0:
		uptimeCheck.Status = "warn"
	default:
		uptimeCheck.Status = "fail"
	}
	add(uptimeCheck, "Platform stability needs attention: harden the worker fleet and expand the incident runbooks.")

	errCheck := SystemCheck{Name: "error_rate", Detail: fmt.Sprintf("%.4f error rate", m.Platform.ErrorRate)}
	switch {
	case m.Platform.ErrorRate < 0.01:
		errCheck.Status = "pass"
	case m.Platform.ErrorRate < 0.05:
		errCheck.Status = "warn"
	default:
		errCheck.Status = "fail"
	}
	add(errCheck, "Error rate trending high: tighten release gates and expand canary coverage.")

	churnCheck := SystemCheck{Name: "churn_rate", Detail: fmt.Sprintf("%.2f%% lifetime churn", k.ChurnRate)}
	switch {
	case k.ChurnRate < 5:
		churnCheck.Status = "pass"
	case k.ChurnRate < 8:
		churnCheck.Status = "warn"
	default:
		churnCheck.Status = "fail"
	}
	add(churnCheck, "Churn above target: invest in onboarding and win-back campaigns for monthly-tier artists.")

	ltvCheck := SystemCheck{Name: "ltv_to_cac", Detail: fmt.Sprintf("LTV:CAC %.2f", k.LTVToCAC)}
	switch {
	case k.LTVToCAC >= 3:
		ltvCheck.Status = "pass"
	case k.LTVToCAC >= 1.5:
		ltvCheck.Status = "warn"
	default:
		ltvCheck.Status = "fail"
	}
	add(ltvCheck, fmt.Sprintf("Unit economics thin: lift LTV with annual plans or push acquisition below the $%.0f CAC benchmark.", BenchmarkCAC))

	growthCheck := SystemCheck{Name: "user_growth", Detail: fmt.Sprintf("%.1f%% user growth", k.UserGrowthRate)}
	switch {
	case k.UserGrowthRate > 0:
		growthCheck.Status = "pass"
	case k.UserGrowthRate == 0:
		growthCheck.Status = "warn"
	default:
		growthCheck.Status = "fail"
	}
	add(growthCheck, "Growth stalled: re-seed lead generation and revisit referral incentives.")

	if made := m.Autonomous.DecisionsMade; made > 0 && m.Autonomous.InterventionsRequired*10 > made {
		recommendations = append(recommendations,
			"Autonomy degraded: human interventions exceed 10% of autopilot decisions; review the guardrails.")
	}

	return res, recommendations
}
