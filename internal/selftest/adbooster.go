package selftest

import (
	"fmt"
	"math"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// Ad-booster tuning. Budgets scale with audience size; paid reach divides
// impressions by the average ad frequency; the organic projection stacks
// the content-quality, algorithm-favor, posting-time and cross-platform
// multipliers, then compounds virality over the campaign duration.
const (
	budgetPerAudienceMember = 0.012
	adFrequency             = 2.0
	paidEngagementRate      = 0.032
	paidClickRate           = 0.011
	organicEngagementRate   = 0.055

	qualityBaseline     = 75.0
	algorithmFavorBoost = 1.15
	optimalTimingBoost  = 1.10
	synergyPerPlatform  = 0.06
	organicJitterMax    = 0.08
)

type platformProfile struct {
	name        string
	cpm         float64 // dollars per thousand impressions
	organicRate float64 // fraction of the audience reachable organically
}

// platformProfiles in canonical order; scenario platform lists index into
// this table so RNG consumption order is stable.
var platformProfiles = []platformProfile{
	{"instagram", 7.50, 0.42},
	{"tiktok", 5.20, 0.55},
	{"youtube", 9.80, 0.34},
	{"twitter", 4.60, 0.28},
	{"facebook", 6.90, 0.25},
}

func profileByName(name string) (platformProfile, bool) {
	for _, p := range platformProfiles {
		if p.name == name {
			return p, true
		}
	}
	return platformProfile{}, false
}

// BoostScenario is one campaign configuration the booster is graded on.
type BoostScenario struct {
	Name           string   `json:"name"`
	CampaignType   string   `json:"campaign_type"`
	AudienceSize   int64    `json:"audience_size"`
	DurationDays   int      `json:"duration_days"`
	ContentQuality float64  `json:"content_quality"`
	Platforms      []string `json:"platforms"`
}

// PlatformSplit is the per-platform share of a paid or organic projection.
type PlatformSplit struct {
	Platform    string  `json:"platform"`
	Spend       float64 `json:"spend"`
	Impressions float64 `json:"impressions"`
	Reach       float64 `json:"reach"`
}

// PaidBaseline is what the same budget buys as conventional ads.
type PaidBaseline struct {
	TotalSpend  float64         `json:"total_spend"`
	Impressions float64         `json:"impressions"`
	Reach       float64         `json:"reach"`
	Engagements float64         `json:"engagements"`
	Clicks      float64         `json:"clicks"`
	PerPlatform []PlatformSplit `json:"per_platform"`
}

// OrganicProjection is the booster's zero-spend projection.
type OrganicProjection struct {
	Reach            float64         `json:"reach"`
	Engagements      float64         `json:"engagements"`
	Cost             float64         `json:"cost"`
	ViralCoefficient float64         `json:"viral_coefficient"`
	PerPlatform      []PlatformSplit `json:"per_platform"`
}

// BoostOutcome grades one scenario.
type BoostOutcome struct {
	Scenario            BoostScenario     `json:"scenario"`
	Paid                PaidBaseline      `json:"paid_advertising"`
	Organic             OrganicProjection `json:"organic_projection"`
	AmplificationFactor float64           `json:"amplification_factor"`
}

// BoosterMetrics aggregates the eight-scenario sweep.
type BoosterMetrics struct {
	Seed                 int64          `json:"seed"`
	Outcomes             []BoostOutcome `json:"outcomes"`
	AverageAmplification float64        `json:"average_amplification"`
	MinAmplification     float64        `json:"min_amplification"`
	TotalOrganicCost     float64        `json:"total_organic_cost"`
}

// boostScenarios covers campaign type x audience size x duration x platform
// mix. The first entry is the product-launch reference configuration the
// regression suite pins a $300 spend to.
var boostScenarios = []BoostScenario{
	{Name: "Short-term Product Launch", CampaignType: "product_launch", AudienceSize: 25000, DurationDays: 7, ContentQuality: 90,
		Platforms: []string{"instagram", "tiktok", "youtube", "twitter", "facebook"}},
	{Name: "Album Release Blitz", CampaignType: "album_release", AudienceSize: 60000, DurationDays: 14, ContentQuality: 95,
		Platforms: []string{"instagram", "tiktok", "youtube"}},
	{Name: "Single Drop Teaser", CampaignType: "single_drop", AudienceSize: 15000, DurationDays: 7, ContentQuality: 88,
		Platforms: []string{"tiktok", "instagram"}},
	{Name: "Tour Announcement", CampaignType: "tour_announcement", AudienceSize: 120000, DurationDays: 10, ContentQuality: 92,
		Platforms: []string{"instagram", "facebook", "twitter"}},
	{Name: "Catalog Evergreen Push", CampaignType: "catalog_push", AudienceSize: 250000, DurationDays: 30, ContentQuality: 85,
		Platforms: []string{"instagram", "tiktok", "youtube", "twitter", "facebook"}},
	{Name: "Fan Re-engagement", CampaignType: "reengagement", AudienceSize: 40000, DurationDays: 10, ContentQuality: 95,
		Platforms: []string{"instagram", "facebook"}},
	{Name: "Playlist Pitch Sprint", CampaignType: "playlist_pitch", AudienceSize: 18000, DurationDays: 7, ContentQuality: 97,
		Platforms: []string{"tiktok", "youtube"}},
	{Name: "Brand Partnership Rollout", CampaignType: "brand_partnership", AudienceSize: 500000, DurationDays: 21, ContentQuality: 91,
		Platforms: []string{"instagram", "tiktok", "youtube", "facebook"}},
}

// RunAdBoosterHarness compares the organic projection against a paid
// baseline for each scenario and reports the amplification factors.
func RunAdBoosterHarness(seed int64) BoosterMetrics {
	rng := sim.NewRNG(seed)

	m := BoosterMetrics{
		Seed:             rng.Seed(),
		Outcomes:         make([]BoostOutcome, 0, len(boostScenarios)),
		MinAmplification: math.MaxFloat64,
	}

	var ampSum float64
	for _, sc := range boostScenarios {
		out := runBoostScenario(rng, sc)
		ampSum += out.AmplificationFactor
		if out.AmplificationFactor < m.MinAmplification {
			m.MinAmplification = out.AmplificationFactor
		}
		m.TotalOrganicCost += out.Organic.Cost
		m.Outcomes = append(m.Outcomes, out)
	}
	m.AverageAmplification = ampSum / float64(len(boostScenarios))
	return m
}

func runBoostScenario(rng *sim.RNG, sc BoostScenario) BoostOutcome {
	out := BoostOutcome{Scenario: sc}

	budget := float64(sc.AudienceSize) * budgetPerAudienceMember
	perPlatformSpend := budget / float64(len(sc.Platforms))

	paid := PaidBaseline{TotalSpend: budget}
	for _, name := range sc.Platforms {
		p, ok := profileByName(name)
		if !ok {
			continue
		}
		impressions := perPlatformSpend / p.cpm * 1000
		reach := impressions / adFrequency
		paid.Impressions += impressions
		paid.Reach += reach
		paid.PerPlatform = append(paid.PerPlatform, PlatformSplit{
			Platform:    p.name,
			Spend:       perPlatformSpend,
			Impressions: impressions,
			Reach:       reach,
		})
	}
	paid.Engagements = paid.Impressions * paidEngagementRate
	paid.Clicks = paid.Impressions * paidClickRate
	out.Paid = paid

	organic := projectOrganic(rng, sc)
	out.Organic = organic

	if paid.Reach > 0 {
		out.AmplificationFactor = organic.Reach / paid.Reach
	}
	return out
}

// projectOrganic models the booster's own playbook: platform-native content
// at optimal times, cross-posted so each platform feeds the others, with
// reach compounding over the campaign through shares.
func projectOrganic(rng *sim.RNG, sc BoostScenario) OrganicProjection {
	qualityMult := sc.ContentQuality / qualityBaseline
	synergy := 1 + synergyPerPlatform*float64(len(sc.Platforms)-1)
	viralCoef := 1.05 + sc.ContentQuality/1000
	compounding := math.Pow(viralCoef, math.Log2(float64(sc.DurationDays)+1))

	organic := OrganicProjection{Cost: 0, ViralCoefficient: viralCoef}
	for _, name := range sc.Platforms {
		p, ok := profileByName(name)
		if !ok {
			continue
		}
		base := float64(sc.AudienceSize) * p.organicRate
		reach := base * qualityMult * algorithmFavorBoost * optimalTimingBoost * synergy * compounding
		// Shares and saves only ever add reach on top of the projection.
		reach *= 1 + rng.Float64()*organicJitterMax
		organic.Reach += reach
		organic.PerPlatform = append(organic.PerPlatform, PlatformSplit{
			Platform: p.name,
			Reach:    reach,
		})
	}

	organic.Engagements = organic.Reach * organicEngagementRate
	return organic
}

// Failures lists every threshold the sweep missed.
func (m BoosterMetrics) Failures() []string {
	var fails []string
	for _, out := range m.Outcomes {
		if out.AmplificationFactor < 2.0 {
			fails = append(fails, fmt.Sprintf("%s amplification %.2fx below 2.0x",
				out.Scenario.Name, out.AmplificationFactor))
		}
	}
	if m.AverageAmplification < 2.5 {
		fails = append(fails, fmt.Sprintf("average amplification %.2fx below 2.5x", m.AverageAmplification))
	}
	if m.TotalOrganicCost != 0 {
		fails = append(fails, fmt.Sprintf("organic projection cost $%.2f, expected $0", m.TotalOrganicCost))
	}
	return fails
}
