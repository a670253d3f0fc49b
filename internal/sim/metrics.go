package sim

import "time"

// UserMetrics tracks population counts. ByTier and ByArchetype always sum
// to Total.
type UserMetrics struct {
	Total        int64               `json:"total"`
	Active       int64               `json:"active"`
	NewToday     int64               `json:"new_today"`
	ChurnedToday int64               `json:"churned_today"`
	ByTier       map[Tier]int64      `json:"by_tier"`
	ByArchetype  map[Archetype]int64 `json:"by_archetype"`
}

// RevenueMetrics tracks money. Yearly is always MRR*12.
type RevenueMetrics struct {
	Daily    float64 `json:"daily"`
	Monthly  float64 `json:"monthly"`
	Yearly   float64 `json:"yearly"`
	Lifetime float64 `json:"lifetime"`
	MRR      float64 `json:"mrr"`
	ARR      float64 `json:"arr"`
}

// StreamMetrics tracks catalog consumption.
type StreamMetrics struct {
	Daily         int64   `json:"daily"`
	Monthly       int64   `json:"monthly"`
	Total         int64   `json:"total"`
	AvgPerRelease float64 `json:"avg_per_release"`
	ViralReleases int64   `json:"viral_releases"`
}

// SocialMetrics tracks the social flywheel.
type SocialMetrics struct {
	PostsToday     int64   `json:"posts_today"`
	EngagementRate float64 `json:"engagement_rate"`
	TotalFollowers int64   `json:"total_followers"`
	ViralPosts     int64   `json:"viral_posts"`
}

// PlatformMetrics tracks simulated system health.
type PlatformMetrics struct {
	Uptime          float64 `json:"uptime"`           // percent, 0..100
	ResponseTimeMs  float64 `json:"response_time_ms"` // avg API latency
	ErrorRate       float64 `json:"error_rate"`       // 0..1
	ActiveWorkflows int64   `json:"active_workflows"`
	QueueBacklog    int64   `json:"queue_backlog"`
}

// AutonomousMetrics counts what the autopilot side of the product did on
// its own versus how often a human had to step in.
type AutonomousMetrics struct {
	PostsPublished        int64 `json:"posts_published"`
	CampaignsLaunched     int64 `json:"campaigns_launched"`
	ReleasesDistributed   int64 `json:"releases_distributed"`
	DecisionsMade         int64 `json:"decisions_made"`
	InterventionsRequired int64 `json:"interventions_required"`
}

// SystemMetrics is the full per-day metric block carried by snapshots,
// status responses and the final result.
type SystemMetrics struct {
	Users      UserMetrics       `json:"users"`
	Revenue    RevenueMetrics    `json:"revenue"`
	Streams    StreamMetrics     `json:"streams"`
	Social     SocialMetrics     `json:"social"`
	Platform   PlatformMetrics   `json:"platform"`
	Autonomous AutonomousMetrics `json:"autonomous"`
	Timestamp  time.Time         `json:"timestamp"`
	SimTime    time.Time         `json:"sim_time"`
}

// NewSystemMetrics returns a zeroed metric block with healthy platform
// defaults and allocated breakdown maps.
func NewSystemMetrics(now, simNow time.Time) SystemMetrics {
	return SystemMetrics{
		Users: UserMetrics{
			ByTier:      map[Tier]int64{TierMonthly: 0, TierYearly: 0, TierLifetime: 0},
			ByArchetype: map[Archetype]int64{ArchetypeHobbyist: 0, ArchetypeEmerging: 0, ArchetypeEstablished: 0, ArchetypeLabel: 0, ArchetypeEnterprise: 0},
		},
		Platform: PlatformMetrics{
			Uptime:         99.99,
			ResponseTimeMs: 120,
			ErrorRate:      0.001,
		},
		Timestamp: now,
		SimTime:   simNow,
	}
}

// Copy returns a deep copy; snapshot history must not alias the live maps.
func (m SystemMetrics) Copy() SystemMetrics {
	out := m
	out.Users.ByTier = make(map[Tier]int64, len(m.Users.ByTier))
	for k, v := range m.Users.ByTier {
		out.Users.ByTier[k] = v
	}
	out.Users.ByArchetype = make(map[Archetype]int64, len(m.Users.ByArchetype))
	for k, v := range m.Users.ByArchetype {
		out.Users.ByArchetype[k] = v
	}
	return out
}

// ResetDaily clears the per-day counters at the top of a day step.
func (m *SystemMetrics) ResetDaily() {
	m.Users.NewToday = 0
	m.Users.ChurnedToday = 0
	m.Revenue.Daily = 0
	m.Streams.Daily = 0
	m.Social.PostsToday = 0
}
