package sim

import "math"

// EconomicIndicators is the macro-economic slice of the market state.
type EconomicIndicators struct {
	InterestRate             float64 `json:"interest_rate"`
	InflationRate            float64 `json:"inflation_rate"`
	ConsumerConfidence       float64 `json:"consumer_confidence"`
	RecessionRisk            float64 `json:"recession_risk"`
	MusicIndustryGrowth      float64 `json:"music_industry_growth"`
	CreatorEconomyMultiplier float64 `json:"creator_economy_multiplier"`
}

// ViralDynamics drives word-of-mouth growth.
type ViralDynamics struct {
	ViralCoefficient        float64 `json:"viral_coefficient"`
	ReferralConversionRate  float64 `json:"referral_conversion_rate"`
	NetworkEffectMultiplier float64 `json:"network_effect_multiplier"`
}

// MarketConditions is the full market state copied into every snapshot.
type MarketConditions struct {
	GrowthMultiplier      float64            `json:"growth_multiplier"`
	CompetitionLevel      float64            `json:"competition_level"`
	EconomicHealth        float64            `json:"economic_health"`
	StreamingMarketGrowth float64            `json:"streaming_market_growth"`
	Trends                []string           `json:"trends"`
	DominantPlatforms     []string           `json:"dominant_platforms"`
	RegulatoryPressure    float64            `json:"regulatory_pressure"`
	AIAdoptionRate        float64            `json:"ai_adoption_rate"`
	Economics             EconomicIndicators `json:"economics"`
	Viral                 ViralDynamics      `json:"viral"`
}

// Copy returns a value copy with fresh label slices.
func (c MarketConditions) Copy() MarketConditions {
	out := c
	out.Trends = append([]string(nil), c.Trends...)
	out.DominantPlatforms = append([]string(nil), c.DominantPlatforms...)
	return out
}

var trendPool = []string{
	"ai_mastering", "short_form_video", "lofi_beats", "vinyl_revival",
	"afrobeats_crossover", "hyperpop", "ambient_focus",
	"catalog_acquisitions", "superfan_monetization", "spatial_audio",
}

// MarketModel evolves the macro state one simulated day at a time with
// clipped random walks. Every clamp below is part of the model contract;
// tests pin them.
type MarketModel struct {
	rng  *RNG
	cond MarketConditions
	day  int
}

// NewMarketModel seeds the market at launch-day conditions. Initial trend
// labels may be supplied (e.g. from the industry feed); nil falls back to
// the built-in set.
func NewMarketModel(rng *RNG, initialTrends []string) *MarketModel {
	trends := initialTrends
	if len(trends) == 0 {
		trends = []string{"short_form_video", "ai_mastering", "superfan_monetization"}
	}
	return &MarketModel{
		rng: rng,
		cond: MarketConditions{
			GrowthMultiplier:      1.0,
			CompetitionLevel:      1.0,
			StreamingMarketGrowth: 0.12,
			Trends:                append([]string(nil), trends...),
			DominantPlatforms:     []string{"spotify", "tiktok", "youtube_music", "apple_music"},
			RegulatoryPressure:    0.20,
			AIAdoptionRate:        0.35,
			Economics: EconomicIndicators{
				InterestRate:             0.045,
				InflationRate:            0.030,
				ConsumerConfidence:       0.70,
				RecessionRisk:            0.15,
				MusicIndustryGrowth:      0.08,
				CreatorEconomyMultiplier: 1.50,
			},
			Viral: ViralDynamics{
				ViralCoefficient:        1.20,
				ReferralConversionRate:  0.15,
				NetworkEffectMultiplier: 1.50,
			},
		},
	}
}

// BusinessCycle is a smooth 4-year sinusoid in [-1, 1].
func (m *MarketModel) BusinessCycle() float64 {
	return math.Sin(2 * math.Pi * float64(m.day) / 1460.0)
}

// AdvanceDay walks every macro variable one day forward.
func (m *MarketModel) AdvanceDay() {
	m.day++
	cycle := m.BusinessCycle()
	eco := &m.cond.Economics

	// Confidence random-walks with a drift slightly biased by the cycle.
	eco.ConsumerConfidence = clamp(eco.ConsumerConfidence+m.rng.Range(-0.01, 0.01)+cycle*0.0005-0.0001, 0.40, 0.95)
	eco.RecessionRisk = clamp(eco.RecessionRisk+m.rng.Range(-0.005, 0.005)-cycle*0.0003, 0.05, 0.50)
	eco.InflationRate = clamp(eco.InflationRate+m.rng.Range(-0.002, 0.002), 0.01, 0.12)

	// Interest reacts to inflation.
	switch {
	case eco.InflationRate > 0.05:
		eco.InterestRate += 0.001
	case eco.InflationRate < 0.03:
		eco.InterestRate -= 0.0005
	}
	eco.InterestRate = clamp(eco.InterestRate, 0.02, 0.12)

	// Creator economy only ever expands, toward 4x.
	eco.CreatorEconomyMultiplier = math.Min(4.0, eco.CreatorEconomyMultiplier+0.0005)
	eco.MusicIndustryGrowth = clamp(eco.MusicIndustryGrowth+m.rng.Range(-0.001, 0.001), 0.02, 0.15)

	// Virality compounds with time in market.
	years := float64(m.day) / 365.0
	m.cond.Viral.ViralCoefficient = math.Min(2.5, m.cond.Viral.ViralCoefficient+0.0001*(1+years*0.5))
	m.cond.Viral.ReferralConversionRate = clamp(m.cond.Viral.ReferralConversionRate+m.rng.Range(-0.001, 0.001), 0.05, 0.35)
	m.cond.Viral.NetworkEffectMultiplier = clamp(m.cond.Viral.NetworkEffectMultiplier+m.rng.Range(-0.002, 0.003), 1.0, 3.0)

	m.cond.StreamingMarketGrowth = clamp(m.cond.StreamingMarketGrowth+m.rng.Range(-0.002, 0.002), 0.05, 0.25)
	m.cond.CompetitionLevel = clamp(m.cond.CompetitionLevel+m.rng.Range(-0.01, 0.01), 0.5, 2.0)
	m.cond.RegulatoryPressure = clamp(m.cond.RegulatoryPressure+m.rng.Range(-0.005, 0.005), 0, 1)
	m.cond.AIAdoptionRate = math.Min(0.95, m.cond.AIAdoptionRate+0.0002)

	// Rare trend rotation keeps the label set moving.
	if m.rng.Chance(0.01) {
		next := trendPool[m.rng.Intn(len(trendPool))]
		m.cond.Trends = append(m.cond.Trends[1:], next)
	}

	m.recomputeHealth()
}

func (m *MarketModel) recomputeHealth() {
	eco := m.cond.Economics
	m.cond.EconomicHealth = 0.4*eco.ConsumerConfidence +
		0.3*(1-eco.RecessionRisk) +
		0.3*(1-eco.InflationRate/0.15)
}

// EconomicMultiplier converts composite health into a growth-scaling
// factor for lead generation.
func (m *MarketModel) EconomicMultiplier() float64 {
	return clamp(0.75+0.5*m.cond.EconomicHealth, 0.80, 1.30)
}

// ViralGrowthMultiplier blends the viral coefficient, a log-scale network
// boost, word of mouth and a social-proof saturation term. Never below 1.
func (m *MarketModel) ViralGrowthMultiplier(population int64, activeRatio float64) float64 {
	v := m.cond.Viral
	base := v.ViralCoefficient * v.ReferralConversionRate
	network := 0.05 * math.Log10(math.Max(10, float64(population))) * v.NetworkEffectMultiplier
	wordOfMouth := 0.3 * activeRatio
	socialProof := math.Min(0.5, 5*float64(population)/TAM)
	return math.Max(1.0, 1.0+base+network+wordOfMouth+socialProof)
}

// AdjustGrowthMultiplier applies a market fluctuation or market-event
// impact to the ambient growth multiplier.
func (m *MarketModel) AdjustGrowthMultiplier(delta float64) {
	m.cond.GrowthMultiplier = clamp(m.cond.GrowthMultiplier+delta, 0.5, 3.0)
}

// Conditions returns a defensive copy of the current market state.
func (m *MarketModel) Conditions() MarketConditions {
	return m.cond.Copy()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
