package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchetypeDistributionNormalized(t *testing.T) {
	dist := ArchetypeDistribution()
	var sum float64
	for _, share := range dist {
		sum += share
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 0.50, dist[ArchetypeHobbyist])
	assert.Equal(t, 0.03, dist[ArchetypeEnterprise])
}

func TestBlendedTierDistributionNormalized(t *testing.T) {
	dist := BlendedTierDistribution()
	var sum float64
	for _, share := range dist {
		sum += share
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, dist[TierMonthly], dist[TierYearly], "monthly dominates the blended mix")
	assert.Greater(t, dist[TierYearly], dist[TierLifetime])
}

func TestWeightedAvgRevenueInsidePriceBand(t *testing.T) {
	avg := WeightedAvgRevenue()
	assert.Greater(t, avg, TierMonthlyRevenue[TierYearly], "blend sits above the cheapest tier")
	assert.Less(t, avg, TierMonthlyRevenue[TierLifetime], "and below the dearest")
}

func TestWeightedAvgLTVReflectsLifetimes(t *testing.T) {
	ltv := WeightedAvgLTV()
	avg := WeightedAvgRevenue()
	assert.Greater(t, ltv, avg*18, "at least the shortest expected lifetime")
	assert.Less(t, ltv, avg*36, "at most the longest")
}

func TestTierPricing(t *testing.T) {
	assert.Equal(t, 49.00, TierMonthlyRevenue[TierMonthly])
	assert.Equal(t, 468.0, TierMonthlyRevenue[TierYearly]*12, "annual plan bills $468/yr")
	assert.Equal(t, 699.0, TierMonthlyRevenue[TierLifetime]*12, "lifetime amortizes $699 over year one")
}
