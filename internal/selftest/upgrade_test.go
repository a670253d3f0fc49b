package selftest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeHarnessMeetsReleaseThresholds(t *testing.T) {
	m := RunUpgradeHarness(12345)

	assert.Equal(t, int64(12345), m.Seed)
	assert.Equal(t, 4, m.MainScenarios)
	assert.Equal(t, 52, m.LongTermScenarios)
	require.Len(t, m.Outcomes, 56)

	assert.GreaterOrEqual(t, m.UpgradeSuccessRate, 95.0)
	assert.GreaterOrEqual(t, m.AlgorithmQualityAvg, 100.0)
	assert.True(t, m.DetectionCompliance)
	assert.True(t, m.ZeroDowntime)
	assert.Contains(t, []string{"maintained", "gained"}, m.CompetitiveAdvantage)
	assert.Empty(t, m.Failures())
}

func TestUpgradeHarnessDetectionWindows(t *testing.T) {
	m := RunUpgradeHarness(999)

	for _, out := range m.Outcomes {
		switch out.Scenario.Severity {
		case SeverityCritical:
			// Critical triggers must be spotted inside the 1-hour SLA.
			assert.Less(t, out.DetectionHours, 1.0, out.Scenario.Name)
		case SeverityMinor:
			assert.GreaterOrEqual(t, out.DetectionHours, 3.5, out.Scenario.Name)
			assert.Less(t, out.DetectionHours, 24.0, out.Scenario.Name)
		}
		assert.True(t, out.WithinSLA, out.Scenario.Name)
		assert.Greater(t, out.UpgradeHours, 0.0)
		if out.Succeeded {
			assert.GreaterOrEqual(t, out.AlgorithmQuality, 102.0)
			assert.LessOrEqual(t, out.AlgorithmQuality, 110.0)
		} else {
			assert.Equal(t, 85.0, out.AlgorithmQuality)
		}
	}
}

func TestUpgradeHarnessScenarioRoster(t *testing.T) {
	m := RunUpgradeHarness(1)

	// The four named drills come first, then one generated scenario per
	// week of a simulated year.
	assert.Equal(t, "Streaming platform algorithm change", m.Outcomes[0].Scenario.Name)
	assert.Equal(t, SeverityCritical, m.Outcomes[0].Scenario.Severity)
	assert.Equal(t, "New distribution platform", m.Outcomes[3].Scenario.Name)
	assert.False(t, m.Outcomes[3].Scenario.LongTerm)

	assert.Equal(t, "Week 1 market shift", m.Outcomes[4].Scenario.Name)
	assert.True(t, m.Outcomes[4].Scenario.LongTerm)
	assert.Equal(t, "Week 52 market shift", m.Outcomes[55].Scenario.Name)
}

func TestUpgradeHarnessDeterministic(t *testing.T) {
	a := RunUpgradeHarness(424242)
	b := RunUpgradeHarness(424242)
	assert.Equal(t, a, b, "same seed must replay the full drill")

	c := RunUpgradeHarness(424243)
	assert.NotEqual(t, a.Outcomes, c.Outcomes, "different seeds draw different windows")
}

func TestUpgradeFailuresReporting(t *testing.T) {
	m := UpgradeMetrics{
		UpgradeSuccessRate:   90,
		AlgorithmQualityAvg:  98,
		DetectionCompliance:  false,
		ZeroDowntime:         false,
		CompetitiveAdvantage: "lost",
	}
	fails := m.Failures()
	assert.Len(t, fails, 5)
	assert.Contains(t, fails[0], "below 95%")
}
