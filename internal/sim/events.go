package sim

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventCategory groups event types for filtering.
type EventCategory string

const (
	CategoryUser      EventCategory = "user"
	CategoryContent   EventCategory = "content"
	CategoryFinancial EventCategory = "financial"
	CategorySocial    EventCategory = "social"
	CategoryMarket    EventCategory = "market"
	CategorySystem    EventCategory = "system"
)

// ImpactLevel grades how much an event matters.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// Event type strings.
const (
	EventUserSignup   = "user_signup"
	EventUserChurn    = "user_churn"
	EventMusicRelease = "music_release"
	EventStream       = "stream_event"
	EventViralMoment  = "viral_moment"
	EventPaymentOK    = "payment_received"
	EventPaymentFail  = "payment_failed"
	EventSocialPost   = "social_post"
)

// Market event kinds (type string is "market_<kind>").
var MarketEventKinds = []string{
	"algorithm_change", "competitor_launch", "industry_trend", "regulation", "economic",
}

// System event kinds (type string is "system_<kind>").
var SystemEventKinds = []string{
	"high_load", "database_slow", "queue_backlog", "memory_pressure",
	"api_error_spike", "third_party_outage", "security_alert",
}

// EventPayload is the typed data block of an event; the event's type string
// is the serialization discriminator.
type EventPayload interface {
	payload()
}

// SignupData describes a new user.
type SignupData struct {
	UserID         string    `json:"user_id,omitempty"`
	Archetype      Archetype `json:"archetype"`
	Tier           Tier      `json:"tier"`
	Source         string    `json:"source"`
	MonthlyRevenue float64   `json:"monthly_revenue"`
	ExpectedLTV    float64   `json:"expected_ltv"`
}

// ChurnData describes a lost user.
type ChurnData struct {
	UserID    string    `json:"user_id,omitempty"`
	Archetype Archetype `json:"archetype"`
	Tier      Tier      `json:"tier"`
	Reason    string    `json:"reason"`
	LostMRR   float64   `json:"lost_mrr"`
}

// ReleaseData describes new catalog content.
type ReleaseData struct {
	ReleaseID string      `json:"release_id"`
	UserID    string      `json:"user_id"`
	Type      ReleaseType `json:"release_type"`
	Genre     string      `json:"genre"`
	Platforms []string    `json:"platforms"`
}

// StreamData describes a stream burst for one release.
type StreamData struct {
	ReleaseID string  `json:"release_id"`
	Platform  string  `json:"platform"`
	Streams   int64   `json:"streams"`
	Revenue   float64 `json:"revenue"`
}

// ViralData describes a release going viral.
type ViralData struct {
	ReleaseID  string  `json:"release_id"`
	Genre      string  `json:"genre"`
	Multiplier float64 `json:"multiplier"`
	DayStreams int64   `json:"day_streams"`
}

// PaymentData describes a payment attempt.
type PaymentData struct {
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id,omitempty"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Succeeded     bool    `json:"succeeded"`
}

// SocialData describes a social post.
type SocialData struct {
	UserID      string  `json:"user_id,omitempty"`
	Platform    string  `json:"platform"`
	ContentType string  `json:"content_type"`
	Engagement  float64 `json:"engagement"`
	Reach       int64   `json:"reach"`
	IsViral     bool    `json:"is_viral"`
}

// MarketData describes an external market shift.
type MarketData struct {
	Kind         string  `json:"kind"`
	Impact       float64 `json:"impact"` // -0.20..+0.20
	DurationDays int     `json:"duration_days"`
	Description  string  `json:"description"`
}

// SystemData describes a platform incident.
type SystemData struct {
	Kind         string  `json:"kind"`
	Severity     float64 `json:"severity"` // 0..1
	AutoResolved bool    `json:"auto_resolved"`
	DurationMins int     `json:"duration_minutes"`
	Detail       string  `json:"detail,omitempty"`
}

// RawData carries payloads of unknown types through deserialization.
type RawData map[string]interface{}

func (SignupData) payload()  {}
func (ChurnData) payload()   {}
func (ReleaseData) payload() {}
func (StreamData) payload()  {}
func (ViralData) payload()   {}
func (PaymentData) payload() {}
func (SocialData) payload()  {}
func (MarketData) payload()  {}
func (SystemData) payload()  {}
func (RawData) payload()     {}

// SimulationEvent is one entry of the append-only event log.
type SimulationEvent struct {
	ID             string        `json:"id"`
	Type           string        `json:"type"`
	Category       EventCategory `json:"category"`
	Day            int           `json:"day"`
	Timestamp      time.Time     `json:"timestamp"` // real
	SimTime        time.Time     `json:"sim_time"`  // simulated
	Probability    float64       `json:"probability"`
	Triggered      bool          `json:"triggered"`
	Impact         ImpactLevel   `json:"impact"`
	Handled        bool          `json:"handled"`
	ResponseTimeMs float64       `json:"response_time_ms,omitempty"`
	Data           EventPayload  `json:"data,omitempty"`
}

type eventAlias struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Category       EventCategory   `json:"category"`
	Day            int             `json:"day"`
	Timestamp      time.Time       `json:"timestamp"`
	SimTime        time.Time       `json:"sim_time"`
	Probability    float64         `json:"probability"`
	Triggered      bool            `json:"triggered"`
	Impact         ImpactLevel     `json:"impact"`
	Handled        bool            `json:"handled"`
	ResponseTimeMs float64         `json:"response_time_ms,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON inlines the typed payload under "data".
func (e SimulationEvent) MarshalJSON() ([]byte, error) {
	a := eventAlias{
		ID: e.ID, Type: e.Type, Category: e.Category, Day: e.Day,
		Timestamp: e.Timestamp, SimTime: e.SimTime,
		Probability: e.Probability, Triggered: e.Triggered,
		Impact: e.Impact, Handled: e.Handled, ResponseTimeMs: e.ResponseTimeMs,
	}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s data: %w", e.ID, err)
		}
		a.Data = raw
	}
	return json.Marshal(a)
}

// UnmarshalJSON rebuilds the typed payload from the type discriminator.
// Unknown types keep their payload as RawData.
func (e *SimulationEvent) UnmarshalJSON(b []byte) error {
	var a eventAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	e.ID, e.Type, e.Category, e.Day = a.ID, a.Type, a.Category, a.Day
	e.Timestamp, e.SimTime = a.Timestamp, a.SimTime
	e.Probability, e.Triggered = a.Probability, a.Triggered
	e.Impact, e.Handled, e.ResponseTimeMs = a.Impact, a.Handled, a.ResponseTimeMs
	e.Data = nil
	if len(a.Data) == 0 {
		return nil
	}
	target := payloadFor(a.Type)
	if err := json.Unmarshal(a.Data, target); err != nil {
		return fmt.Errorf("unmarshal event %s data: %w", a.ID, err)
	}
	e.Data = deref(target)
	return nil
}

func payloadFor(eventType string) interface{} {
	switch eventType {
	case EventUserSignup:
		return &SignupData{}
	case EventUserChurn:
		return &ChurnData{}
	case EventMusicRelease:
		return &ReleaseData{}
	case EventStream:
		return &StreamData{}
	case EventViralMoment:
		return &ViralData{}
	case EventPaymentOK, EventPaymentFail:
		return &PaymentData{}
	case EventSocialPost:
		return &SocialData{}
	}
	if len(eventType) > 7 && eventType[:7] == "market_" {
		return &MarketData{}
	}
	if len(eventType) > 7 && eventType[:7] == "system_" {
		return &SystemData{}
	}
	return &RawData{}
}

func deref(p interface{}) EventPayload {
	switch v := p.(type) {
	case *SignupData:
		return *v
	case *ChurnData:
		return *v
	case *ReleaseData:
		return *v
	case *StreamData:
		return *v
	case *ViralData:
		return *v
	case *PaymentData:
		return *v
	case *SocialData:
		return *v
	case *MarketData:
		return *v
	case *SystemData:
		return *v
	case *RawData:
		return *v
	}
	return nil
}

// CategoryForType maps an event type string onto its category tag.
func CategoryForType(eventType string) EventCategory {
	switch eventType {
	case EventUserSignup, EventUserChurn:
		return CategoryUser
	case EventMusicRelease, EventStream, EventViralMoment:
		return CategoryContent
	case EventPaymentOK, EventPaymentFail:
		return CategoryFinancial
	case EventSocialPost:
		return CategorySocial
	}
	if len(eventType) > 7 && eventType[:7] == "market_" {
		return CategoryMarket
	}
	return CategorySystem
}
