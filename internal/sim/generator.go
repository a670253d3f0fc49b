package sim

import (
	"fmt"
	"math"
	"time"
)

// Seasonal probability modifiers, indexed by month (January = 0).
var seasonalModifiers = map[string][12]float64{
	"user_growth": {1.20, 1.00, 1.05, 1.00, 0.95, 0.90, 0.85, 0.90, 1.10, 1.05, 1.10, 1.15},
	"streaming":   {0.95, 0.90, 1.00, 1.00, 1.05, 1.10, 1.15, 1.10, 1.00, 1.05, 1.10, 1.25},
	"releases":    {1.10, 1.00, 1.10, 1.05, 1.10, 0.95, 0.85, 0.90, 1.15, 1.20, 1.15, 0.70},
	"social":      {1.05, 0.95, 1.00, 1.00, 1.05, 1.10, 1.15, 1.15, 1.05, 1.00, 1.10, 1.20},
}

// Day-of-week modifiers, indexed Sunday = 0.
var dayOfWeekModifiers = map[string][7]float64{
	"streaming": {1.10, 0.95, 0.90, 0.95, 1.00, 1.20, 1.25},
	"social":    {1.15, 0.90, 0.90, 0.95, 1.00, 1.10, 1.20},
	"signups":   {0.90, 1.15, 1.10, 1.05, 1.00, 0.95, 0.85},
}

// Hour-of-day modifiers (detailed mode), midnight = 0.
var hourOfDayModifiers = map[string][24]float64{
	"streaming": {
		0.70, 0.55, 0.45, 0.40, 0.40, 0.50, 0.65, 0.85, 1.00, 1.05, 1.05, 1.10,
		1.10, 1.05, 1.00, 1.00, 1.05, 1.15, 1.20, 1.25, 1.30, 1.30, 1.15, 0.90,
	},
	"social": {
		0.60, 0.45, 0.35, 0.30, 0.30, 0.40, 0.60, 0.90, 1.05, 1.10, 1.05, 1.20,
		1.25, 1.10, 1.00, 1.00, 1.10, 1.20, 1.25, 1.30, 1.35, 1.30, 1.10, 0.85,
	},
}

// GenreProfile scales stream, social and viral behavior per genre.
type GenreProfile struct {
	Streams float64
	Social  float64
	Viral   float64
}

var genreProfiles = map[string]GenreProfile{
	"pop":        {1.20, 1.20, 1.30},
	"hip_hop":    {1.30, 1.30, 1.40},
	"electronic": {1.10, 1.00, 1.10},
	"rock":       {0.95, 0.90, 0.90},
	"indie":      {0.90, 1.00, 1.05},
	"r_and_b":    {1.05, 1.10, 1.10},
	"latin":      {1.15, 1.25, 1.35},
	"country":    {0.90, 0.85, 0.80},
	"jazz":       {0.70, 0.60, 0.50},
	"classical":  {0.60, 0.50, 0.40},
}

// PlatformProfile scales per-platform stream distribution.
type PlatformProfile struct {
	StreamMultiplier float64
	PlaylistChance   float64
	SaveRate         float64
}

var platformProfiles = map[string]PlatformProfile{
	"spotify":       {1.30, 0.25, 0.30},
	"apple_music":   {1.10, 0.18, 0.25},
	"youtube_music": {1.00, 0.12, 0.15},
	"amazon_music":  {0.85, 0.10, 0.18},
	"deezer":        {0.70, 0.08, 0.12},
}

// GenreProfileFor returns the profile for a genre, neutral when unknown.
func GenreProfileFor(genre string) GenreProfile {
	if p, ok := genreProfiles[genre]; ok {
		return p
	}
	return GenreProfile{1, 1, 1}
}

// Signup sources and churn reasons with their sampling weights.
var (
	signupSources      = []string{"organic", "referral", "paid_ad", "social", "press"}
	signupSourceWeight = []float64{0.40, 0.20, 0.15, 0.18, 0.07}

	churnReasons      = []string{"price", "competition", "features", "inactivity", "support", "other"}
	churnReasonWeight = []float64{0.30, 0.20, 0.15, 0.20, 0.10, 0.05}

	contentTypes        = []string{"image", "video", "story", "reel", "text"}
	contentTypeWeight   = []float64{0.30, 0.25, 0.20, 0.15, 0.10}
	paymentMethods      = []string{"card", "paypal", "apple", "google"}
	paymentMethodWeight = []float64{0.60, 0.20, 0.12, 0.08}
)

// Expected subscription lifetime in months, per tier, for LTV estimates.
var expectedMonthsByTier = map[Tier]float64{
	TierMonthly:  18,
	TierYearly:   30,
	TierLifetime: 36,
}

// Churn propensity per tier: monthly plans churn hardest, lifetime nearly
// never.
var churnTierMultiplier = map[Tier]float64{
	TierMonthly:  1.2,
	TierYearly:   0.7,
	TierLifetime: 0.1,
}

// EventProbabilities are the per-user-per-hour base rates the day step
// aggregates. Exposed as a struct so tests and the selftest harnesses can
// pin them.
type EventProbabilities struct {
	UpgradePerHour      float64 `json:"upgrade_per_hour"`
	ReleasePerHour      float64 `json:"release_per_hour"`
	SocialPostPerHour   float64 `json:"social_post_per_hour"`
	BaseMonthlyChurn    float64 `json:"base_monthly_churn"`
	PaymentFailureRate  float64 `json:"payment_failure_rate"`
	ViralMomentBase     float64 `json:"viral_moment_base"`
	SystemIncidentDaily float64 `json:"system_incident_daily"`
}

// DefaultProbabilities returns the calibrated base rates.
func DefaultProbabilities() EventProbabilities {
	return EventProbabilities{
		UpgradePerHour:      0.0005,
		ReleasePerHour:      0.002,
		SocialPostPerHour:   0.01,
		BaseMonthlyChurn:    0.002,
		PaymentFailureRate:  0.02,
		ViralMomentBase:     0.002,
		SystemIncidentDaily: 0.05,
	}
}

// Daily trigger probabilities per market event kind.
var marketEventDaily = map[string]float64{
	"algorithm_change":  0.020,
	"competitor_launch": 0.015,
	"industry_trend":    0.030,
	"regulation":        0.005,
	"economic":          0.010,
}

// EventGenerator samples typed events for a simulated instant. It shares
// the run's RNG and owns nothing but its id counters, so the engine stays
// the single writer of all state.
type EventGenerator struct {
	rng      *RNG
	probs    EventProbabilities
	eventSeq int64
	userSeq  int64
	relSeq   int64
	txnSeq   int64
}

// NewEventGenerator wires the generator to the run's RNG.
func NewEventGenerator(rng *RNG, probs EventProbabilities) *EventGenerator {
	return &EventGenerator{rng: rng, probs: probs}
}

// Probabilities returns the active base rates.
func (g *EventGenerator) Probabilities() EventProbabilities { return g.probs }

func (g *EventGenerator) nextEventID() string {
	g.eventSeq++
	return fmt.Sprintf("evt_%08d", g.eventSeq)
}

// NextUserID mints a deterministic user id.
func (g *EventGenerator) NextUserID() string {
	g.userSeq++
	return fmt.Sprintf("user_%08d", g.userSeq)
}

// NextReleaseID mints a deterministic release id.
func (g *EventGenerator) NextReleaseID() string {
	g.relSeq++
	return fmt.Sprintf("rel_%08d", g.relSeq)
}

// NextTransactionID mints a deterministic transaction id.
func (g *EventGenerator) NextTransactionID() string {
	g.txnSeq++
	return fmt.Sprintf("txn_%08d", g.txnSeq)
}

// newEvent stamps the shared envelope fields.
func (g *EventGenerator) newEvent(eventType string, day int, realNow, simNow time.Time, prob float64, impact ImpactLevel, data EventPayload) SimulationEvent {
	return SimulationEvent{
		ID:          g.nextEventID(),
		Type:        eventType,
		Category:    CategoryForType(eventType),
		Day:         day,
		Timestamp:   realNow,
		SimTime:     simNow,
		Probability: prob,
		Triggered:   true,
		Impact:      impact,
		Handled:     true,
		Data:        data,
	}
}

// SeasonalModifier looks up the monthly curve for a channel.
func SeasonalModifier(channel string, simNow time.Time) float64 {
	if curve, ok := seasonalModifiers[channel]; ok {
		return curve[int(simNow.Month())-1]
	}
	return 1
}

// DayOfWeekModifier looks up the weekday curve for a channel.
func DayOfWeekModifier(channel string, simNow time.Time) float64 {
	if curve, ok := dayOfWeekModifiers[channel]; ok {
		return curve[int(simNow.Weekday())]
	}
	return 1
}

// HourOfDayModifier looks up the hourly curve for a channel.
func HourOfDayModifier(channel string, simNow time.Time) float64 {
	if curve, ok := hourOfDayModifiers[channel]; ok {
		return curve[simNow.Hour()]
	}
	return 1
}

// NewUser samples a fresh user: archetype by the fixed signup mix, tier by
// the archetype's tier mix, behavioral fields within archetype-typical
// ranges.
func (g *EventGenerator) NewUser(simNow time.Time) *SimulatedUser {
	idx := g.rng.WeightedIndex(ArchetypeWeights)
	archetype := AllArchetypes[idx]
	tierIdx := g.rng.WeightedIndex(TierDistributionByArchetype[archetype])
	tier := AllTiers[tierIdx]

	followers := g.followerSeed(archetype)
	return &SimulatedUser{
		ID:              g.NextUserID(),
		Archetype:       archetype,
		Tier:            tier,
		MonthlyRevenue:  TierMonthlyRevenue[tier],
		SocialFollowers: followers,
		EngagementRate:  g.rng.Range(0.02, 0.15),
		ViralPotential:  g.rng.Float64(),
		ChurnRisk:       g.churnRiskSeed(archetype),
		LifetimeValue:   TierMonthlyRevenue[tier] * expectedMonthsByTier[tier],
		LastActiveAt:    simNow,
		CreatedAt:       simNow,
	}
}

func (g *EventGenerator) followerSeed(a Archetype) int64 {
	switch a {
	case ArchetypeHobbyist:
		return int64(g.Between(50, 500))
	case ArchetypeEmerging:
		return int64(g.Between(500, 5000))
	case ArchetypeEstablished:
		return int64(g.Between(5000, 50000))
	case ArchetypeLabel:
		return int64(g.Between(10000, 100000))
	default:
		return int64(g.Between(20000, 200000))
	}
}

func (g *EventGenerator) Between(min, max int) int { return g.rng.Between(min, max) }

func (g *EventGenerator) churnRiskSeed(a Archetype) float64 {
	switch a {
	case ArchetypeHobbyist:
		return g.rng.Range(0.3, 0.9)
	case ArchetypeEmerging:
		return g.rng.Range(0.2, 0.6)
	case ArchetypeEstablished:
		return g.rng.Range(0.1, 0.4)
	case ArchetypeLabel:
		return g.rng.Range(0.05, 0.3)
	default:
		return g.rng.Range(0.02, 0.2)
	}
}

// SignupEvent wraps a freshly created user.
func (g *EventGenerator) SignupEvent(u *SimulatedUser, day int, realNow, simNow time.Time, prob float64) SimulationEvent {
	source := g.rng.WeightedChoice(signupSources, signupSourceWeight)
	return g.newEvent(EventUserSignup, day, realNow, simNow, prob, ImpactLow, SignupData{
		UserID:         u.ID,
		Archetype:      u.Archetype,
		Tier:           u.Tier,
		Source:         source,
		MonthlyRevenue: u.MonthlyRevenue,
		ExpectedLTV:    u.LifetimeValue,
	})
}

// ChurnProbability is the per-user daily churn chance: base monthly churn
// spread over 30 days, scaled by the user's risk and tier, capped at 0.5.
func (g *EventGenerator) ChurnProbability(u *SimulatedUser) float64 {
	p := (g.probs.BaseMonthlyChurn / 30.0) * (0.5 + u.ChurnRisk) * churnTierMultiplier[u.Tier]
	return math.Min(p, 0.5)
}

// ChurnEvent records a lost user with a weighted reason.
func (g *EventGenerator) ChurnEvent(u *SimulatedUser, day int, realNow, simNow time.Time, prob float64) SimulationEvent {
	reason := g.rng.WeightedChoice(churnReasons, churnReasonWeight)
	return g.newEvent(EventUserChurn, day, realNow, simNow, prob, ImpactMedium, ChurnData{
		UserID:    u.ID,
		Archetype: u.Archetype,
		Tier:      u.Tier,
		Reason:    reason,
		LostMRR:   u.MonthlyRevenue,
	})
}

// NewRelease samples a release for an owner id.
func (g *EventGenerator) NewRelease(ownerID string, simNow time.Time) *SimulatedRelease {
	relType := ReleaseSingle
	switch draw := g.rng.Float64(); {
	case draw > 0.93:
		relType = ReleaseAlbum
	case draw > 0.78:
		relType = ReleaseEP
	}
	genre := Genres[g.rng.Intn(len(Genres))]
	// Most releases go wide; some stay on the big three.
	platforms := StreamingPlatforms
	if g.rng.Chance(0.25) {
		platforms = StreamingPlatforms[:3]
	}
	return &SimulatedRelease{
		ID:         g.NextReleaseID(),
		UserID:     ownerID,
		Type:       relType,
		Genre:      genre,
		ReleasedAt: simNow,
		Platforms:  append([]string(nil), platforms...),
	}
}

// ReleaseEvent wraps new catalog content.
func (g *EventGenerator) ReleaseEvent(r *SimulatedRelease, day int, realNow, simNow time.Time, prob float64) SimulationEvent {
	return g.newEvent(EventMusicRelease, day, realNow, simNow, prob, ImpactLow, ReleaseData{
		ReleaseID: r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		Genre:     r.Genre,
		Platforms: append([]string(nil), r.Platforms...),
	})
}

// PlatformSplit distributes a stream total across the release's platforms
// by their stream multipliers. Iteration follows the release's platform
// slice, so the split is deterministic.
func (g *EventGenerator) PlatformSplit(r *SimulatedRelease, streams int64) map[string]int64 {
	var totalWeight float64
	for _, p := range r.Platforms {
		totalWeight += platformProfiles[p].StreamMultiplier
	}
	out := make(map[string]int64, len(r.Platforms))
	if totalWeight <= 0 || streams <= 0 {
		return out
	}
	var assigned int64
	for i, p := range r.Platforms {
		share := platformProfiles[p].StreamMultiplier / totalWeight
		n := int64(math.Floor(float64(streams) * share))
		if i == len(r.Platforms)-1 {
			n = streams - assigned
		}
		out[p] = n
		assigned += n
	}
	return out
}

// StreamEvent summarizes a day's streams on the release's top platform.
func (g *EventGenerator) StreamEvent(r *SimulatedRelease, streams int64, revenue float64, day int, realNow, simNow time.Time) SimulationEvent {
	platform := "spotify"
	if len(r.Platforms) > 0 {
		platform = r.Platforms[0]
	}
	return g.newEvent(EventStream, day, realNow, simNow, 1, ImpactLow, StreamData{
		ReleaseID: r.ID,
		Platform:  platform,
		Streams:   streams,
		Revenue:   revenue,
	})
}

// ViralMomentProbability scales the base rate by recent streams, the
// owner's engagement and the genre's viral factor.
func (g *EventGenerator) ViralMomentProbability(r *SimulatedRelease, ownerEngagement float64) float64 {
	streamHeat := math.Min(3, float64(r.DailyStreams)/500.0)
	genre := GenreProfileFor(r.Genre)
	p := g.probs.ViralMomentBase * (0.5 + streamHeat) * genre.Viral * (0.5 + ownerEngagement*3)
	return math.Min(p, 0.25)
}

// ViralMomentEvent marks a release as having gone viral.
func (g *EventGenerator) ViralMomentEvent(r *SimulatedRelease, multiplier float64, day int, realNow, simNow time.Time, prob float64) SimulationEvent {
	return g.newEvent(EventViralMoment, day, realNow, simNow, prob, ImpactHigh, ViralData{
		ReleaseID:  r.ID,
		Genre:      r.Genre,
		Multiplier: multiplier,
		DayStreams: r.DailyStreams,
	})
}

// PaymentEvent samples a payment attempt: ~2% fail, method weighted
// card/paypal/apple/google.
func (g *EventGenerator) PaymentEvent(userID string, amount float64, day int, realNow, simNow time.Time) (SimulationEvent, *SimulatedTransaction) {
	method := g.rng.WeightedChoice(paymentMethods, paymentMethodWeight)
	succeeded := !g.rng.Chance(g.probs.PaymentFailureRate)
	txn := &SimulatedTransaction{
		ID:        g.NextTransactionID(),
		UserID:    userID,
		Type:      TxnSubscription,
		Amount:    amount,
		Currency:  "USD",
		Status:    TxnCompleted,
		Method:    method,
		CreatedAt: simNow,
	}
	eventType := EventPaymentOK
	impact := ImpactLow
	if !succeeded {
		txn.Status = TxnFailed
		eventType = EventPaymentFail
		impact = ImpactMedium
	} else {
		processed := simNow
		txn.ProcessedAt = &processed
	}
	ev := g.newEvent(eventType, day, realNow, simNow, 1-g.probs.PaymentFailureRate, impact, PaymentData{
		TransactionID: txn.ID,
		UserID:        userID,
		Amount:        amount,
		Method:        method,
		Succeeded:     succeeded,
	})
	return ev, txn
}

// SocialPostEvent samples one post: platform uniform, content type
// weighted, viral when estimated engagement clears the threshold.
func (g *EventGenerator) SocialPostEvent(u *SimulatedUser, day int, realNow, simNow time.Time) SimulationEvent {
	platform := SocialPlatforms[g.rng.Intn(len(SocialPlatforms))]
	contentType := g.rng.WeightedChoice(contentTypes, contentTypeWeight)
	season := SeasonalModifier("social", simNow)
	dow := DayOfWeekModifier("social", simNow)
	engagement := u.EngagementRate * season * dow * g.rng.Range(0.5, 1.5)
	reach := int64(float64(u.SocialFollowers) * engagement * g.rng.Range(1, 4))
	isViral := engagement > 0.12
	impact := ImpactLow
	if isViral {
		impact = ImpactMedium
	}
	return g.newEvent(EventSocialPost, day, realNow, simNow, g.probs.SocialPostPerHour, impact, SocialData{
		UserID:      u.ID,
		Platform:    platform,
		ContentType: contentType,
		Engagement:  engagement,
		Reach:       reach,
		IsViral:     isViral,
	})
}

// MarketEvent rolls each market event kind against its daily probability;
// at most one fires per day (first hit in canonical order wins).
func (g *EventGenerator) MarketEvent(day int, realNow, simNow time.Time) (SimulationEvent, bool) {
	for _, kind := range MarketEventKinds {
		p := marketEventDaily[kind]
		if !g.rng.Chance(p) {
			continue
		}
		impactVal := g.rng.Range(-0.20, 0.20)
		duration := g.rng.Between(7, 90)
		level := ImpactMedium
		if math.Abs(impactVal) > 0.12 {
			level = ImpactHigh
		}
		ev := g.newEvent("market_"+kind, day, realNow, simNow, p, level, MarketData{
			Kind:         kind,
			Impact:       impactVal,
			DurationDays: duration,
			Description:  marketEventDescription(kind, impactVal),
		})
		return ev, true
	}
	return SimulationEvent{}, false
}

func marketEventDescription(kind string, impact float64) string {
	direction := "tailwind"
	if impact < 0 {
		direction = "headwind"
	}
	return fmt.Sprintf("%s creates a %.0f%% %s for the platform", kind, math.Abs(impact)*100, direction)
}

// SystemIncident samples a platform incident; severity decides impact:
// >0.95 critical, >0.80 high, >0.50 medium, else low.
func (g *EventGenerator) SystemIncident(day int, realNow, simNow time.Time) (SimulationEvent, bool) {
	if !g.rng.Chance(g.probs.SystemIncidentDaily) {
		return SimulationEvent{}, false
	}
	kind := SystemEventKinds[g.rng.Intn(len(SystemEventKinds))]
	severity := g.rng.Float64()
	level := ImpactLow
	switch {
	case severity > 0.95:
		level = ImpactCritical
	case severity > 0.80:
		level = ImpactHigh
	case severity > 0.50:
		level = ImpactMedium
	}
	autoResolved := severity <= 0.95
	ev := g.newEvent("system_"+kind, day, realNow, simNow, g.probs.SystemIncidentDaily, level, SystemData{
		Kind:         kind,
		Severity:     severity,
		AutoResolved: autoResolved,
		DurationMins: g.rng.Between(1, 120),
	})
	ev.ResponseTimeMs = g.rng.Range(50, 2500)
	return ev, true
}

// InternalFailureEvent records a recovered day-step panic as a critical
// system event.
func (g *EventGenerator) InternalFailureEvent(day int, realNow, simNow time.Time, detail string) SimulationEvent {
	return g.newEvent("system_internal_error", day, realNow, simNow, 1, ImpactCritical, SystemData{
		Kind:         "internal_error",
		Severity:     1,
		AutoResolved: false,
		Detail:       detail,
	})
}
