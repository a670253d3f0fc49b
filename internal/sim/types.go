package sim

import "time"

// Subscription tiers. There is deliberately no free tier: every simulated
// user carries a positive monthly revenue attribution.
type Tier string

const (
	TierMonthly  Tier = "monthly"
	TierYearly   Tier = "yearly"
	TierLifetime Tier = "lifetime"
)

// AllTiers lists tiers in upgrade order (monthly -> yearly -> lifetime).
var AllTiers = []Tier{TierMonthly, TierYearly, TierLifetime}

// Monthly revenue attribution per tier: monthly $49, yearly $468/yr, and
// lifetime $699 amortized over the first year.
var TierMonthlyRevenue = map[Tier]float64{
	TierMonthly:  49.00,
	TierYearly:   39.00,
	TierLifetime: 58.25,
}

// Archetype buckets users by how they use the platform.
type Archetype string

const (
	ArchetypeHobbyist    Archetype = "hobbyist"
	ArchetypeEmerging    Archetype = "emerging_artist"
	ArchetypeEstablished Archetype = "established_artist"
	ArchetypeLabel       Archetype = "label"
	ArchetypeEnterprise  Archetype = "enterprise"
)

// AllArchetypes in weight order.
var AllArchetypes = []Archetype{
	ArchetypeHobbyist,
	ArchetypeEmerging,
	ArchetypeEstablished,
	ArchetypeLabel,
	ArchetypeEnterprise,
}

// Signup mix: hobbyist 50, emerging 25, established 15, label 7, enterprise 3.
var ArchetypeWeights = []float64{50, 25, 15, 7, 3}

// Tier mix per archetype (monthly/yearly/lifetime fractions). Heavier
// archetypes skew toward annual and lifetime plans.
var TierDistributionByArchetype = map[Archetype][]float64{
	ArchetypeHobbyist:    {0.70, 0.25, 0.05},
	ArchetypeEmerging:    {0.55, 0.35, 0.10},
	ArchetypeEstablished: {0.35, 0.50, 0.15},
	ArchetypeLabel:       {0.25, 0.60, 0.15},
	ArchetypeEnterprise:  {0.15, 0.70, 0.15},
}

// ArchetypeDistribution returns the normalized signup mix keyed by
// archetype.
func ArchetypeDistribution() map[Archetype]float64 {
	var total float64
	for _, w := range ArchetypeWeights {
		total += w
	}
	out := make(map[Archetype]float64, len(AllArchetypes))
	for i, a := range AllArchetypes {
		out[a] = ArchetypeWeights[i] / total
	}
	return out
}

// BlendedTierDistribution folds the per-archetype tier mixes through the
// archetype weights, producing the population-wide tier split used for
// aggregate allocation. Accumulation follows the canonical archetype order
// so the floats come out bit-identical on every run.
func BlendedTierDistribution() map[Tier]float64 {
	arch := ArchetypeDistribution()
	out := map[Tier]float64{TierMonthly: 0, TierYearly: 0, TierLifetime: 0}
	for _, a := range AllArchetypes {
		share := arch[a]
		mix := TierDistributionByArchetype[a]
		out[TierMonthly] += share * mix[0]
		out[TierYearly] += share * mix[1]
		out[TierLifetime] += share * mix[2]
	}
	return out
}

// WeightedAvgRevenue is the blended monthly revenue of one new user under
// the standard tier mix.
func WeightedAvgRevenue() float64 {
	dist := BlendedTierDistribution()
	var avg float64
	for _, tier := range AllTiers {
		avg += dist[tier] * TierMonthlyRevenue[tier]
	}
	return avg
}

// WeightedAvgLTV is the blended expected lifetime value of one new user:
// tier revenue times the tier's expected subscription lifetime.
func WeightedAvgLTV() float64 {
	dist := BlendedTierDistribution()
	var avg float64
	for _, tier := range AllTiers {
		avg += dist[tier] * TierMonthlyRevenue[tier] * expectedMonthsByTier[tier]
	}
	return avg
}

// SimulatedUser is a fully materialized user record. Only the bounded
// sample pool holds these; the rest of the population exists as aggregate
// counters.
type SimulatedUser struct {
	ID              string    `json:"id"`
	Archetype       Archetype `json:"archetype"`
	Tier            Tier      `json:"tier"`
	MonthlyRevenue  float64   `json:"monthly_revenue"`
	TotalStreams    int64     `json:"total_streams"`
	TotalReleases   int       `json:"total_releases"`
	SocialFollowers int64     `json:"social_followers"`
	EngagementRate  float64   `json:"engagement_rate"`
	ViralPotential  float64   `json:"viral_potential"`
	ChurnRisk       float64   `json:"churn_risk"`
	LifetimeValue   float64   `json:"lifetime_value"`
	LastActiveAt    time.Time `json:"last_active_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReleaseType distinguishes catalog entries.
type ReleaseType string

const (
	ReleaseSingle ReleaseType = "single"
	ReleaseEP     ReleaseType = "ep"
	ReleaseAlbum  ReleaseType = "album"
)

// SimulatedRelease is one catalog entry. Releases persist for the whole
// run and back-reference their owner by id.
type SimulatedRelease struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Type         ReleaseType `json:"type"`
	Genre        string      `json:"genre"`
	ReleasedAt   time.Time   `json:"released_at"`
	Platforms    []string    `json:"platforms"`
	TotalStreams int64       `json:"total_streams"`
	DailyStreams int64       `json:"daily_streams"`
	PeakStreams  int64       `json:"peak_streams"`
	Revenue      float64     `json:"revenue"`
	IsViral      bool        `json:"is_viral"`
	ViralDate    *time.Time  `json:"viral_date,omitempty"`
}

// Transaction types and statuses.
type TransactionType string

const (
	TxnSubscription TransactionType = "subscription"
	TxnPurchase     TransactionType = "purchase"
	TxnPayout       TransactionType = "payout"
	TxnRefund       TransactionType = "refund"
)

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnCompleted TransactionStatus = "completed"
	TxnFailed    TransactionStatus = "failed"
	TxnRefunded  TransactionStatus = "refunded"
)

// SimulatedTransaction is one money movement. Payouts may complete
// asynchronously in simulated time.
type SimulatedTransaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Type        TransactionType   `json:"type"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Status      TransactionStatus `json:"status"`
	Method      string            `json:"method,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// Genres and platforms the generator samples from.
var Genres = []string{
	"pop", "hip_hop", "electronic", "rock", "indie",
	"r_and_b", "latin", "country", "jazz", "classical",
}

var StreamingPlatforms = []string{
	"spotify", "apple_music", "youtube_music", "amazon_music", "deezer",
}

var SocialPlatforms = []string{
	"instagram", "tiktok", "youtube", "twitter", "facebook",
}
