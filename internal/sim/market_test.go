package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketLaunchConditions(t *testing.T) {
	m := NewMarketModel(NewRNG(1), nil)
	cond := m.Conditions()

	assert.Equal(t, 1.0, cond.GrowthMultiplier)
	assert.Equal(t, 1.0, cond.CompetitionLevel)
	assert.Equal(t, 0.12, cond.StreamingMarketGrowth)
	assert.Equal(t, []string{"short_form_video", "ai_mastering", "superfan_monetization"}, cond.Trends)
	assert.Contains(t, cond.DominantPlatforms, "spotify")
	assert.Equal(t, 1.20, cond.Viral.ViralCoefficient)
	assert.Equal(t, 0.70, cond.Economics.ConsumerConfidence)
}

func TestMarketSeedTrends(t *testing.T) {
	seeded := []string{"drum_and_bass_revival", "fan_funding"}
	m := NewMarketModel(NewRNG(1), seeded)
	assert.Equal(t, seeded, m.Conditions().Trends)
}

func TestMarketWalkStaysInsideClamps(t *testing.T) {
	m := NewMarketModel(NewRNG(77), nil)

	// Walk a full 10-year horizon and assert every macro variable stays
	// inside its documented band the whole way.
	for day := 0; day < 3650; day++ {
		m.AdvanceDay()
		c := m.Conditions()
		eco := c.Economics

		require.GreaterOrEqual(t, eco.ConsumerConfidence, 0.40)
		require.LessOrEqual(t, eco.ConsumerConfidence, 0.95)
		require.GreaterOrEqual(t, eco.RecessionRisk, 0.05)
		require.LessOrEqual(t, eco.RecessionRisk, 0.50)
		require.GreaterOrEqual(t, eco.InflationRate, 0.01)
		require.LessOrEqual(t, eco.InflationRate, 0.12)
		require.GreaterOrEqual(t, eco.InterestRate, 0.02)
		require.LessOrEqual(t, eco.InterestRate, 0.12)
		require.LessOrEqual(t, eco.CreatorEconomyMultiplier, 4.0)
		require.GreaterOrEqual(t, eco.MusicIndustryGrowth, 0.02)
		require.LessOrEqual(t, eco.MusicIndustryGrowth, 0.15)

		require.LessOrEqual(t, c.Viral.ViralCoefficient, 2.5)
		require.GreaterOrEqual(t, c.Viral.ReferralConversionRate, 0.05)
		require.LessOrEqual(t, c.Viral.ReferralConversionRate, 0.35)
		require.GreaterOrEqual(t, c.Viral.NetworkEffectMultiplier, 1.0)
		require.LessOrEqual(t, c.Viral.NetworkEffectMultiplier, 3.0)

		require.GreaterOrEqual(t, c.StreamingMarketGrowth, 0.05)
		require.LessOrEqual(t, c.StreamingMarketGrowth, 0.25)
		require.GreaterOrEqual(t, c.CompetitionLevel, 0.5)
		require.LessOrEqual(t, c.CompetitionLevel, 2.0)
		require.GreaterOrEqual(t, c.RegulatoryPressure, 0.0)
		require.LessOrEqual(t, c.RegulatoryPressure, 1.0)
		require.LessOrEqual(t, c.AIAdoptionRate, 0.95)
		require.Len(t, c.Trends, 3, "trend rotation must keep the label count fixed")
	}
}

func TestMarketCreatorEconomyOnlyExpands(t *testing.T) {
	m := NewMarketModel(NewRNG(5), nil)
	prev := m.Conditions().Economics.CreatorEconomyMultiplier
	for day := 0; day < 365; day++ {
		m.AdvanceDay()
		cur := m.Conditions().Economics.CreatorEconomyMultiplier
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestMarketBusinessCycle(t *testing.T) {
	m := NewMarketModel(NewRNG(5), nil)
	assert.Equal(t, 0.0, m.BusinessCycle(), "cycle starts at zero")
	for day := 0; day < 365; day++ {
		m.AdvanceDay()
	}
	assert.Greater(t, m.BusinessCycle(), 0.9, "one year in is near the cycle peak")
}

func TestMarketEconomicMultiplierBand(t *testing.T) {
	m := NewMarketModel(NewRNG(9), nil)
	for day := 0; day < 2000; day++ {
		m.AdvanceDay()
		v := m.EconomicMultiplier()
		require.GreaterOrEqual(t, v, 0.80)
		require.LessOrEqual(t, v, 1.30)
	}
}

func TestMarketViralGrowthMultiplier(t *testing.T) {
	m := NewMarketModel(NewRNG(9), nil)

	small := m.ViralGrowthMultiplier(100, 0.5)
	big := m.ViralGrowthMultiplier(10_000_000, 0.5)
	assert.GreaterOrEqual(t, small, 1.0)
	assert.Greater(t, big, small, "network effects compound with population")

	assert.GreaterOrEqual(t, m.ViralGrowthMultiplier(0, 0), 1.0)
}

func TestMarketAdjustGrowthMultiplierClamps(t *testing.T) {
	m := NewMarketModel(NewRNG(9), nil)

	m.AdjustGrowthMultiplier(50)
	assert.Equal(t, 3.0, m.Conditions().GrowthMultiplier)

	m.AdjustGrowthMultiplier(-50)
	assert.Equal(t, 0.5, m.Conditions().GrowthMultiplier)

	m.AdjustGrowthMultiplier(0.25)
	assert.Equal(t, 0.75, m.Conditions().GrowthMultiplier)
}

func TestMarketConditionsCopyIsDefensive(t *testing.T) {
	m := NewMarketModel(NewRNG(9), nil)
	cond := m.Conditions()
	cond.Trends[0] = "mutated"
	cond.DominantPlatforms[0] = "mutated"

	fresh := m.Conditions()
	assert.NotEqual(t, "mutated", fresh.Trends[0])
	assert.NotEqual(t, "mutated", fresh.DominantPlatforms[0])
}

func TestMarketReplaysUnderSameSeed(t *testing.T) {
	a := NewMarketModel(NewRNG(4242), nil)
	b := NewMarketModel(NewRNG(4242), nil)
	for day := 0; day < 500; day++ {
		a.AdvanceDay()
		b.AdvanceDay()
	}
	assert.Equal(t, a.Conditions(), b.Conditions())
}
