package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

func sampleResult() *sim.SimulationResult {
	return &sim.SimulationResult{
		Config:        sim.Config{RunID: "melodic-otter", PeriodName: "1_year", DaysToSimulate: 365},
		Seed:          12345,
		RealDuration:  3456 * time.Millisecond,
		SimulatedDays: 365,
		Completed:     true,
		FinalMetrics: sim.SystemMetrics{
			Users: sim.UserMetrics{
				Total:  125000,
				Active: 88000,
				ByTier: map[sim.Tier]int64{
					sim.TierMonthly:  100000,
					sim.TierYearly:   20000,
					sim.TierLifetime: 5000,
				},
			},
			Revenue:    sim.RevenueMetrics{MRR: 84321.5, ARR: 1011858, Lifetime: 420000.75},
			Streams:    sim.StreamMetrics{Total: 48000000, ViralReleases: 12},
			Social:     sim.SocialMetrics{TotalFollowers: 2400000},
			Platform:   sim.PlatformMetrics{Uptime: 99.9, ResponseTimeMs: 145.2, ErrorRate: 0.0012},
			Autonomous: sim.AutonomousMetrics{DecisionsMade: 52000, InterventionsRequired: 3},
		},
		KPIs: sim.KPIBlock{
			UserGrowthRate:       150,
			RevenueGrowthRate:    180,
			ChurnRate:            4.2,
			LTV:                  1089.3,
			CAC:                  50,
			LTVToCAC:             21.79,
			ViralCoefficient:     1.2,
			NPS:                  62,
			AutonomousEfficiency: 99.99,
		},
		SystemTests: sim.SystemTestResults{
			Passed: 2,
			Checks: []sim.SystemCheck{
				{Name: "Revenue consistency", Status: "pass", Detail: "MRR matches tier mix"},
				{Name: "Uptime", Status: "pass", Detail: "99.90% >= 99.5%"},
			},
		},
		TotalSignups: 130000,
		TotalChurn:   5000,
	}
}

func TestMarkdownReportSections(t *testing.T) {
	r := NewRenderer()

	md, err := r.Markdown(sampleResult())
	require.NoError(t, err)

	assert.Contains(t, md, "# Simulation Report — melodic-otter")
	assert.Contains(t, md, "**Period:** 1_year (365 simulated days)")
	assert.Contains(t, md, "**Seed:** 12345")
	assert.Contains(t, md, "**Wall time:** 3.456s")

	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "**125,000 artists** (88,000 active")
	assert.Contains(t, md, "**$84,321.50 MRR** ($1,011,858.00 ARR)")
	assert.Contains(t, md, "**48,000,000 lifetime streams**")
	assert.Contains(t, md, "130,000 artists signed up and 5,000 left")
	assert.Contains(t, md, "52,000 decisions and required 3 human interventions")

	assert.Contains(t, md, "## System Test Results")
	assert.Contains(t, md, "| Revenue consistency | ✅ pass | MRR matches tier mix |")
	assert.Contains(t, md, "**2 passed / 0 warnings / 0 failed**")

	assert.Contains(t, md, "## Key Performance Indicators")
	assert.Contains(t, md, "| User growth | 150.0% |")
	assert.Contains(t, md, "| LTV | $1,089.30 |")
	assert.Contains(t, md, "| LTV : CAC | 21.79 |")
	assert.Contains(t, md, "| NPS | 62.00 |")

	assert.Contains(t, md, "monthly 100,000;")
	assert.Contains(t, md, "yearly 20,000;")
	assert.Contains(t, md, "Lifetime revenue: $420,000.75")
	assert.Contains(t, md, "2,400,000 followers")
	assert.Contains(t, md, "99.9% uptime, 0.0012 error rate, 145ms avg response")

	assert.Contains(t, md, "None recorded.")
	assert.Contains(t, md, "1. All systems healthy")
	assert.Contains(t, md, "✅ ALL TESTS PASSED")
	assert.Contains(t, md, "ran to completion")
}

func TestMarkdownReportDegradedRun(t *testing.T) {
	r := NewRenderer()

	res := sampleResult()
	res.Config.PeriodName = ""
	res.Config.DaysToSimulate = 90
	res.SimulatedDays = 41
	res.Completed = false
	res.SystemTests.Warnings = 1
	res.SystemTests.CriticalIssues = []string{"error rate above 2%"}
	res.Recommendations = []string{"Throttle growth spend", "Expand support rotation"}

	md, err := r.Markdown(res)
	require.NoError(t, err)

	assert.Contains(t, md, "**Period:** 90 days (41 simulated days)")
	assert.Contains(t, md, "⚠️ WARNINGS DETECTED")
	assert.Contains(t, md, "- error rate above 2%")
	assert.Contains(t, md, "1. Throttle growth spend")
	assert.Contains(t, md, "2. Expand support rotation")
	assert.Contains(t, md, "stopped before the configured horizon")
	assert.NotContains(t, md, "None recorded.")
}

func TestNumberFilters(t *testing.T) {
	r := NewRenderer()

	cases := []struct {
		name string
		tpl  string
		val  interface{}
		want string
	}{
		{"money", "{{ v | money }}", 84321.5, "$84,321.50"},
		{"money groups millions", "{{ v | money }}", 1234567.891, "$1,234,567.89"},
		{"money from int", "{{ v | money }}", int64(5), "$5.00"},
		{"money passthrough", "{{ v | money }}", "n/a", "n/a"},
		{"comma", "{{ v | comma }}", 9876543.0, "9,876,543"},
		{"comma negative", "{{ v | comma }}", -1234567.0, "-1,234,567"},
		{"comma small", "{{ v | comma }}", 42, "42"},
		{"pct", "{{ v | pct }}", 42.37, "42.4%"},
		{"ratio", "{{ v | ratio }}", 3.478, "3.48"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.Render("", tc.tpl, map[string]interface{}{"v": tc.val})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestRenderReusesCachedTemplates(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("greeting", "Hi {{ name }}", map[string]interface{}{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana", out)

	// A cache hit skips parsing entirely, so a bogus body under the same
	// key still renders the cached template.
	out, err = r.Render("greeting", "{% bogus %}", map[string]interface{}{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana", out)
}

func TestRenderParseError(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render("", "{% bogus %}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing report template")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "simulation_report_melodic-otter.md", Filename("melodic-otter"))
}
