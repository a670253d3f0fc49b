package sim

import (
	"math"
	"time"
)

// DefaultMaxSampleSize bounds the number of fully materialized user
// records. Populations beyond the cap exist as cohort counters only, which
// is what keeps 50-year runs in constant memory.
const DefaultMaxSampleSize = 5000

// AggregateUsers is the cohort-counter view of the population.
type AggregateUsers struct {
	Total          int64               `json:"total"`
	ByTier         map[Tier]int64      `json:"by_tier"`
	ByArchetype    map[Archetype]int64 `json:"by_archetype"`
	TotalRevenue   float64             `json:"total_revenue"` // monthly attribution (MRR)
	AvgRevenue     float64             `json:"avg_revenue"`
	TotalStreams   int64               `json:"total_streams"`
	AvgStreams     float64             `json:"avg_streams"`
	TotalFollowers int64               `json:"total_followers"`
	AvgFollowers   float64             `json:"avg_followers"`
}

// AggregateStore holds the bounded sample pool plus the cohort counters
// that represent everyone else. The pool keeps an insertion-ordered index
// so random sampling is reproducible under a fixed seed; Go map iteration
// order would break replay.
type AggregateStore struct {
	maxSample int
	pool      map[string]*SimulatedUser
	order     []string
	index     map[string]int
	agg       AggregateUsers
}

// NewAggregateStore builds an empty store with the given sample cap
// (<=0 falls back to DefaultMaxSampleSize).
func NewAggregateStore(maxSample int) *AggregateStore {
	if maxSample <= 0 {
		maxSample = DefaultMaxSampleSize
	}
	return &AggregateStore{
		maxSample: maxSample,
		pool:      make(map[string]*SimulatedUser),
		index:     make(map[string]int),
		agg: AggregateUsers{
			ByTier:      map[Tier]int64{TierMonthly: 0, TierYearly: 0, TierLifetime: 0},
			ByArchetype: map[Archetype]int64{ArchetypeHobbyist: 0, ArchetypeEmerging: 0, ArchetypeEstablished: 0, ArchetypeLabel: 0, ArchetypeEnterprise: 0},
		},
	}
}

// MaxSampleSize returns the pool cap.
func (s *AggregateStore) MaxSampleSize() int { return s.maxSample }

// PoolSize returns how many users are materialized.
func (s *AggregateStore) PoolSize() int { return len(s.order) }

// Total returns the full population count.
func (s *AggregateStore) Total() int64 { return s.agg.Total }

// HasSampleCapacity reports whether another user can be materialized.
func (s *AggregateStore) HasSampleCapacity() bool { return len(s.order) < s.maxSample }

// AddUsers admits count users into the aggregate counters, split across
// tiers and archetypes by the given distributions. Each bucket takes
// floor(count*pct); the remainder lands on the heaviest bucket so the
// per-tier and per-archetype sums always equal the total.
func (s *AggregateStore) AddUsers(count int64, tierDist map[Tier]float64, archDist map[Archetype]float64, avgRevenue float64) {
	if count <= 0 {
		return
	}
	allocate(count, AllTiers, tierDist, s.agg.ByTier)
	allocate(count, AllArchetypes, archDist, s.agg.ByArchetype)
	s.agg.Total += count
	s.agg.TotalRevenue += float64(count) * avgRevenue
	s.refreshAverages()
}

// allocate distributes count across buckets by floor shares, remainder to
// the heaviest bucket. Iteration over the ordered key slice keeps the
// result deterministic.
func allocate[K comparable](count int64, keys []K, dist map[K]float64, into map[K]int64) {
	var assigned int64
	heaviest := keys[0]
	for _, k := range keys {
		if dist[k] > dist[heaviest] {
			heaviest = k
		}
		n := int64(math.Floor(float64(count) * dist[k]))
		into[k] += n
		assigned += n
	}
	if rem := count - assigned; rem > 0 {
		into[heaviest] += rem
	}
}

// RemoveUsers applies churn proportionally across tiers and archetypes
// using the pre-churn shares, clamped at zero per bucket. It returns the
// number actually removed, which both breakdowns and the total reflect
// exactly.
func (s *AggregateStore) RemoveUsers(count int64) int64 {
	if count <= 0 || s.agg.Total <= 0 {
		return 0
	}
	if count > s.agg.Total {
		count = s.agg.Total
	}
	pre := s.agg.Total

	// Tier dimension decides the exact head count removed.
	var removed int64
	for _, t := range AllTiers {
		share := float64(s.agg.ByTier[t]) / float64(pre)
		dec := int64(math.Floor(float64(count) * share))
		if dec > s.agg.ByTier[t] {
			dec = s.agg.ByTier[t]
		}
		s.agg.ByTier[t] -= dec
		removed += dec
	}
	// Archetype dimension must shed exactly the same head count.
	s.drainArchetypes(removed, pre)

	s.agg.Total -= removed
	s.agg.TotalRevenue -= float64(removed) * s.agg.AvgRevenue
	if s.agg.TotalRevenue < 0 {
		s.agg.TotalRevenue = 0
	}
	s.agg.TotalFollowers -= int64(float64(removed) * s.agg.AvgFollowers)
	if s.agg.TotalFollowers < 0 {
		s.agg.TotalFollowers = 0
	}
	s.refreshAverages()
	return removed
}

func (s *AggregateStore) drainArchetypes(removed, preTotal int64) {
	var assigned int64
	for _, a := range AllArchetypes {
		share := float64(s.agg.ByArchetype[a]) / float64(preTotal)
		dec := int64(math.Floor(float64(removed) * share))
		if dec > s.agg.ByArchetype[a] {
			dec = s.agg.ByArchetype[a]
		}
		s.agg.ByArchetype[a] -= dec
		assigned += dec
	}
	// Drain any leftover from the fullest buckets, in canonical order.
	for assigned < removed {
		var fullest Archetype
		var best int64 = -1
		for _, a := range AllArchetypes {
			if s.agg.ByArchetype[a] > best {
				best = s.agg.ByArchetype[a]
				fullest = a
			}
		}
		if best <= 0 {
			break
		}
		s.agg.ByArchetype[fullest]--
		assigned++
	}
}

// ShiftTier moves one user between tiers (upgrades) and applies the MRR
// delta. Total population is unchanged.
func (s *AggregateStore) ShiftTier(from, to Tier, revenueDelta float64) {
	if s.agg.ByTier[from] <= 0 {
		return
	}
	s.agg.ByTier[from]--
	s.agg.ByTier[to]++
	s.agg.TotalRevenue += revenueDelta
	s.refreshAverages()
}

// AdmitUser registers one concrete user in the cohort counters and
// materializes them into the pool when capacity allows. Returns whether the
// user was materialized.
func (s *AggregateStore) AdmitUser(u *SimulatedUser) bool {
	s.agg.Total++
	s.agg.ByTier[u.Tier]++
	s.agg.ByArchetype[u.Archetype]++
	s.agg.TotalRevenue += u.MonthlyRevenue
	sampled := s.AddSample(u)
	s.refreshAverages()
	return sampled
}

// AddSample materializes a user into the pool. Returns false when the pool
// is at capacity; the user then exists as counters only.
func (s *AggregateStore) AddSample(u *SimulatedUser) bool {
	if len(s.order) >= s.maxSample {
		return false
	}
	if _, dup := s.pool[u.ID]; dup {
		return false
	}
	s.pool[u.ID] = u
	s.index[u.ID] = len(s.order)
	s.order = append(s.order, u.ID)
	s.agg.TotalFollowers += u.SocialFollowers
	s.refreshAverages()
	return true
}

// RemoveSample evicts a user object from the pool by id (swap-remove, so
// the order slice stays compact).
func (s *AggregateStore) RemoveSample(id string) *SimulatedUser {
	u, ok := s.pool[id]
	if !ok {
		return nil
	}
	i := s.index[id]
	last := len(s.order) - 1
	s.order[i] = s.order[last]
	s.index[s.order[i]] = i
	s.order = s.order[:last]
	delete(s.pool, id)
	delete(s.index, id)
	return u
}

// SampleAt returns the pool user at a position in insertion order.
func (s *AggregateStore) SampleAt(i int) *SimulatedUser {
	if i < 0 || i >= len(s.order) {
		return nil
	}
	return s.pool[s.order[i]]
}

// RandomSample draws one pool user matching the filter, scanning forward
// from a random start so the draw is uniform-ish and reproducible. Nil
// filter accepts everyone.
func (s *AggregateStore) RandomSample(rng *RNG, filter func(*SimulatedUser) bool) *SimulatedUser {
	n := len(s.order)
	if n == 0 {
		return nil
	}
	start := rng.Intn(n)
	for i := 0; i < n; i++ {
		u := s.pool[s.order[(start+i)%n]]
		if filter == nil || filter(u) {
			return u
		}
	}
	return nil
}

// EachSample visits pool users in insertion order.
func (s *AggregateStore) EachSample(fn func(*SimulatedUser)) {
	for _, id := range s.order {
		fn(s.pool[id])
	}
}

// ActiveRatio estimates the active share of the whole population from the
// sample pool (active = last_active within the window).
func (s *AggregateStore) ActiveRatio(simNow time.Time, window time.Duration) float64 {
	if len(s.order) == 0 {
		return 0
	}
	active := 0
	for _, id := range s.order {
		if simNow.Sub(s.pool[id].LastActiveAt) <= window {
			active++
		}
	}
	return float64(active) / float64(len(s.order))
}

// PoolFollowers sums follower counts across the sample pool.
func (s *AggregateStore) PoolFollowers() int64 {
	var total int64
	for _, id := range s.order {
		total += s.pool[id].SocialFollowers
	}
	return total
}

// Aggregates returns a defensive copy of the counters.
func (s *AggregateStore) Aggregates() AggregateUsers {
	out := s.agg
	out.ByTier = map[Tier]int64{}
	for k, v := range s.agg.ByTier {
		out.ByTier[k] = v
	}
	out.ByArchetype = map[Archetype]int64{}
	for k, v := range s.agg.ByArchetype {
		out.ByArchetype[k] = v
	}
	return out
}

func (s *AggregateStore) refreshAverages() {
	if s.agg.Total > 0 {
		s.agg.AvgRevenue = s.agg.TotalRevenue / float64(s.agg.Total)
		s.agg.AvgStreams = float64(s.agg.TotalStreams) / float64(s.agg.Total)
		s.agg.AvgFollowers = float64(s.agg.TotalFollowers) / float64(s.agg.Total)
	} else {
		s.agg.AvgRevenue, s.agg.AvgStreams, s.agg.AvgFollowers = 0, 0, 0
	}
}

// AddStreams credits streams to the aggregate totals.
func (s *AggregateStore) AddStreams(n int64) {
	s.agg.TotalStreams += n
	s.refreshAverages()
}

// SetFollowerTotal replaces the follower total after a pool-wide update.
func (s *AggregateStore) SetFollowerTotal(n int64) {
	s.agg.TotalFollowers = n
	s.refreshAverages()
}
