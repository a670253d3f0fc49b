package sim

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumTiers(a AggregateUsers) int64 {
	var n int64
	for _, v := range a.ByTier {
		n += v
	}
	return n
}

func sumArchetypes(a AggregateUsers) int64 {
	var n int64
	for _, v := range a.ByArchetype {
		n += v
	}
	return n
}

func poolUser(id string) *SimulatedUser {
	return &SimulatedUser{
		ID:              id,
		Archetype:       ArchetypeHobbyist,
		Tier:            TierMonthly,
		MonthlyRevenue:  TierMonthlyRevenue[TierMonthly],
		SocialFollowers: 100,
		EngagementRate:  0.05,
		LastActiveAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregateAddUsersBreakdownsSumToTotal(t *testing.T) {
	s := NewAggregateStore(10)

	// 997 deliberately does not divide evenly across the distributions;
	// the remainder must land somewhere, never get lost.
	s.AddUsers(997, BlendedTierDistribution(), ArchetypeDistribution(), WeightedAvgRevenue())

	agg := s.Aggregates()
	assert.Equal(t, int64(997), agg.Total)
	assert.Equal(t, int64(997), sumTiers(agg))
	assert.Equal(t, int64(997), sumArchetypes(agg))
	assert.InDelta(t, 997*WeightedAvgRevenue(), agg.TotalRevenue, 0.01)
	assert.InDelta(t, WeightedAvgRevenue(), agg.AvgRevenue, 0.01)
}

func TestAggregateAddUsersIgnoresNonPositive(t *testing.T) {
	s := NewAggregateStore(10)
	s.AddUsers(0, BlendedTierDistribution(), ArchetypeDistribution(), 49)
	s.AddUsers(-5, BlendedTierDistribution(), ArchetypeDistribution(), 49)
	assert.Zero(t, s.Total())
}

func TestAggregateRemoveUsersKeepsDimensionsAligned(t *testing.T) {
	s := NewAggregateStore(10)
	s.AddUsers(10000, BlendedTierDistribution(), ArchetypeDistribution(), WeightedAvgRevenue())

	removed := s.RemoveUsers(137)
	assert.Greater(t, removed, int64(0))
	assert.LessOrEqual(t, removed, int64(137))

	agg := s.Aggregates()
	assert.Equal(t, int64(10000)-removed, agg.Total)
	assert.Equal(t, agg.Total, sumTiers(agg), "tier counts drifted from total")
	assert.Equal(t, agg.Total, sumArchetypes(agg), "archetype counts drifted from total")
}

func TestAggregateRemoveUsersClampsAtPopulation(t *testing.T) {
	s := NewAggregateStore(10)
	s.AddUsers(50, BlendedTierDistribution(), ArchetypeDistribution(), 49)

	removed := s.RemoveUsers(5000)
	assert.LessOrEqual(t, removed, int64(50))
	agg := s.Aggregates()
	assert.GreaterOrEqual(t, agg.Total, int64(0))
	assert.Equal(t, agg.Total, sumTiers(agg))
	assert.Equal(t, agg.Total, sumArchetypes(agg))
	for tier, n := range agg.ByTier {
		assert.GreaterOrEqual(t, n, int64(0), tier)
	}

	assert.Zero(t, s.RemoveUsers(0))
	assert.Zero(t, s.RemoveUsers(-3))
}

func TestAggregateShiftTier(t *testing.T) {
	s := NewAggregateStore(10)
	s.AddUsers(100, map[Tier]float64{TierMonthly: 1}, ArchetypeDistribution(), 49)

	before := s.Aggregates()
	require.Equal(t, int64(100), before.ByTier[TierMonthly])

	delta := TierMonthlyRevenue[TierYearly] - TierMonthlyRevenue[TierMonthly]
	s.ShiftTier(TierMonthly, TierYearly, delta)

	after := s.Aggregates()
	assert.Equal(t, int64(99), after.ByTier[TierMonthly])
	assert.Equal(t, before.ByTier[TierYearly]+1, after.ByTier[TierYearly])
	assert.Equal(t, before.Total, after.Total, "upgrades never change the population")
	assert.InDelta(t, before.TotalRevenue+delta, after.TotalRevenue, 0.001)
}

func TestAggregateShiftTierFromEmptyBucketIsNoop(t *testing.T) {
	s := NewAggregateStore(10)
	s.AddUsers(10, map[Tier]float64{TierMonthly: 1}, ArchetypeDistribution(), 49)

	before := s.Aggregates()
	s.ShiftTier(TierLifetime, TierYearly, -10)
	assert.Equal(t, before, s.Aggregates())
}

func TestAggregatePoolCapacity(t *testing.T) {
	s := NewAggregateStore(3)

	for i := 0; i < 3; i++ {
		assert.True(t, s.AdmitUser(poolUser(fmt.Sprintf("u%d", i))))
	}
	assert.False(t, s.HasSampleCapacity())
	assert.Equal(t, 3, s.PoolSize())

	// Beyond the cap users still count, they just aren't materialized.
	assert.False(t, s.AdmitUser(poolUser("u3")))
	assert.Equal(t, int64(4), s.Total())
	assert.Equal(t, 3, s.PoolSize())
}

func TestAggregateAddSampleRejectsDuplicates(t *testing.T) {
	s := NewAggregateStore(10)
	u := poolUser("dup")
	assert.True(t, s.AddSample(u))
	assert.False(t, s.AddSample(u))
	assert.Equal(t, 1, s.PoolSize())
}

func TestAggregateRemoveSample(t *testing.T) {
	s := NewAggregateStore(10)
	for i := 0; i < 5; i++ {
		s.AddSample(poolUser(fmt.Sprintf("u%d", i)))
	}

	got := s.RemoveSample("u2")
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.ID)
	assert.Equal(t, 4, s.PoolSize())
	assert.Nil(t, s.RemoveSample("u2"), "second removal finds nothing")
	assert.Nil(t, s.RemoveSample("missing"))

	// Swap-remove keeps every remaining user reachable by position.
	seen := map[string]bool{}
	for i := 0; i < s.PoolSize(); i++ {
		u := s.SampleAt(i)
		require.NotNil(t, u)
		seen[u.ID] = true
	}
	assert.Len(t, seen, 4)
	assert.False(t, seen["u2"])
}

func TestAggregateSampleAtOutOfRange(t *testing.T) {
	s := NewAggregateStore(10)
	s.AddSample(poolUser("u0"))
	assert.Nil(t, s.SampleAt(-1))
	assert.Nil(t, s.SampleAt(1))
}

func TestAggregateRandomSampleHonorsFilter(t *testing.T) {
	s := NewAggregateStore(10)
	for i := 0; i < 6; i++ {
		u := poolUser(fmt.Sprintf("u%d", i))
		if i == 4 {
			u.Tier = TierLifetime
		}
		s.AddSample(u)
	}
	rng := NewRNG(42)

	got := s.RandomSample(rng, func(u *SimulatedUser) bool { return u.Tier == TierLifetime })
	require.NotNil(t, got)
	assert.Equal(t, "u4", got.ID)

	assert.Nil(t, s.RandomSample(rng, func(u *SimulatedUser) bool { return false }))
	assert.NotNil(t, s.RandomSample(rng, nil))

	empty := NewAggregateStore(10)
	assert.Nil(t, empty.RandomSample(rng, nil))
}

func TestAggregateActiveRatio(t *testing.T) {
	s := NewAggregateStore(10)
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	fresh := poolUser("fresh")
	fresh.LastActiveAt = now.AddDate(0, 0, -2)
	stale := poolUser("stale")
	stale.LastActiveAt = now.AddDate(0, 0, -30)
	s.AddSample(fresh)
	s.AddSample(stale)

	assert.Equal(t, 0.5, s.ActiveRatio(now, 7*24*time.Hour))
	assert.Equal(t, 0.0, NewAggregateStore(10).ActiveRatio(now, time.Hour))
}

func TestAggregatesReturnsDefensiveCopy(t *testing.T) {
	s := NewAggregateStore(10)
	s.AddUsers(100, BlendedTierDistribution(), ArchetypeDistribution(), 49)

	agg := s.Aggregates()
	agg.ByTier[TierMonthly] = -999
	agg.ByArchetype[ArchetypeLabel] = -999

	again := s.Aggregates()
	assert.NotEqual(t, int64(-999), again.ByTier[TierMonthly])
	assert.NotEqual(t, int64(-999), again.ByArchetype[ArchetypeLabel])
}

func TestAggregateStoreDefaultCap(t *testing.T) {
	assert.Equal(t, DefaultMaxSampleSize, NewAggregateStore(0).MaxSampleSize())
	assert.Equal(t, DefaultMaxSampleSize, NewAggregateStore(-1).MaxSampleSize())
	assert.Equal(t, 42, NewAggregateStore(42).MaxSampleSize())
}
