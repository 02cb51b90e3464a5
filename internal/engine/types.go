package engine

import (
	"time"

	"github.com/ignite/campaign-optimizer/internal/segmentation"
)

// Platform identifies the ad platform a campaign runs on.
type Platform string

const (
	PlatformGoogleAds Platform = "google_ads"
	PlatformMetaAds   Platform = "meta_ads"
	PlatformTikTokAds Platform = "tiktok_ads"
	PlatformEmail     Platform = "email"
)

// AggregateMetrics holds the raw counters and derived rates for one campaign.
// CTR/CPC/CPA/ROAS are always derivable from the raw counters; DeriveRates
// recomputes them and substitutes zero for undefined ratios instead of
// propagating NaN.
type AggregateMetrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Cost        float64 `json:"cost"`
	Revenue     float64 `json:"revenue"`

	CTR  float64 `json:"ctr"`
	CPC  float64 `json:"cpc"`
	CPA  float64 `json:"cpa"`
	ROAS float64 `json:"roas"`
}

// DeriveRates recomputes the rate fields from the raw counters.
// Zero denominators produce a zero rate (no signal), never an error.
func (m *AggregateMetrics) DeriveRates() {
	m.CTR = safeDiv(float64(m.Clicks), float64(m.Impressions))
	m.CPC = safeDiv(m.Cost, float64(m.Clicks))
	m.CPA = safeDiv(m.Cost, float64(m.Conversions))
	m.ROAS = safeDiv(m.Revenue, m.Cost)
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// HourlyBucket holds the raw counters for one hour of the day (0-23).
type HourlyBucket struct {
	Hour        int     `json:"hour"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Cost        float64 `json:"cost"`
}

// TrendDirection labels the short-term movement of a metric series.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendInfo describes the recent trajectory of a campaign's performance.
type TrendInfo struct {
	Direction  TrendDirection `json:"direction"`
	Confidence float64        `json:"confidence"` // 0..1
	Forecast   []float64      `json:"forecast,omitempty"`
}

// MetricSnapshot is the latest performance snapshot for one campaign.
// Hourly buckets are expected to sum to the aggregate totals; that is the
// caller's responsibility and is not enforced here.
type MetricSnapshot struct {
	CampaignID string           `json:"campaign_id"`
	Platform   Platform         `json:"platform"`
	Metrics    AggregateMetrics `json:"metrics"`
	Hourly     []HourlyBucket   `json:"hourly,omitempty"`

	// Demographics maps category -> value -> share. The four categories are
	// "age", "gender", "location" and "device"; shares within a category
	// sum to 1.
	Demographics map[string]map[string]float64 `json:"demographics,omitempty"`

	Trend      TrendInfo `json:"trend"`
	CapturedAt time.Time `json:"captured_at"`
}

// DeviceConversionRates estimates per-device conversion rates from the
// campaign-wide rate weighted by the device demographic shares. When the
// snapshot carries no device breakdown the result is nil.
func (s *MetricSnapshot) DeviceConversionRates() map[string]float64 {
	devices, ok := s.Demographics["device"]
	if !ok || len(devices) == 0 {
		return nil
	}
	overall := safeDiv(float64(s.Metrics.Conversions), float64(s.Metrics.Clicks))
	rates := make(map[string]float64, len(devices))
	for device, share := range devices {
		// Devices with a larger slice of the audience regress toward the
		// campaign-wide rate.
		rates[device] = overall * (0.5 + share)
	}
	return rates
}

// Priority orders rules: high before medium before low.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// rank maps a priority to a sortable weight. Unknown priorities sort last.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Frequency is how often a rule is allowed to fire.
type Frequency string

const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Interval returns the minimum elapsed time between two firings.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 168 * time.Hour
	}
	return 0
}

// OptimizationRule is one condition -> action rule. LastExecuted is owned
// exclusively by the rule engine and mutated only on a successful firing.
type OptimizationRule struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Metric       string     `json:"metric" yaml:"metric"`
	Operator     string     `json:"operator" yaml:"operator"` // >, <, >=, <=, ==
	Threshold    float64    `json:"threshold" yaml:"threshold"`
	Action       string     `json:"action" yaml:"action"`
	Priority     Priority   `json:"priority" yaml:"priority"`
	Enabled      bool       `json:"enabled" yaml:"enabled"`
	Frequency    Frequency  `json:"frequency" yaml:"frequency"`
	LastExecuted *time.Time `json:"last_executed,omitempty" yaml:"-"`
}

// FiredAction records one rule firing against one campaign. Actions are
// descriptive; the engine calls no external system on a firing.
type FiredAction struct {
	ID         string    `json:"id"`
	RuleID     string    `json:"rule_id"`
	RuleName   string    `json:"rule_name"`
	CampaignID string    `json:"campaign_id"`
	Action     string    `json:"action"`
	Metric     string    `json:"metric"`
	Observed   float64   `json:"observed"`
	Threshold  float64   `json:"threshold"`
	Priority   Priority  `json:"priority"`
	FiredAt    time.Time `json:"fired_at"`
}

// ReallocationProposal is a bounded budget change for one campaign relative
// to its cohort. The allocator only proposes deltas; keeping the cumulative
// allocation within the total budget is the caller's invariant.
type ReallocationProposal struct {
	CampaignID         string  `json:"campaign_id"`
	Direction          string  `json:"direction"` // increase, decrease
	ChangePct          float64 `json:"change_pct"`
	CurrentAllocation  float64 `json:"current_allocation"`
	ProposedAllocation float64 `json:"proposed_allocation"`
	CampaignROAS       float64 `json:"campaign_roas"`
	CohortROAS         float64 `json:"cohort_roas"`
	Reason             string  `json:"reason"`
}

// AlertSeverity grades alerts.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
)

// Alert flags a campaign condition that needs operator attention.
type Alert struct {
	ID         string        `json:"id"`
	CampaignID string        `json:"campaign_id"`
	Severity   AlertSeverity `json:"severity"`
	Type       string        `json:"type"` // budget_pace, low_ctr
	Message    string        `json:"message"`
	Observed   float64       `json:"observed"`
	Threshold  float64       `json:"threshold"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Anomaly flags a statistical deviation between the recent hourly window and
// the series baseline. Significance is a fixed constant, not a p-value; a
// real test will replace the constant when one lands.
type Anomaly struct {
	ID           string         `json:"id"`
	CampaignID   string         `json:"campaign_id"`
	Metric       string         `json:"metric"`
	Baseline     float64        `json:"baseline"`
	Recent       float64        `json:"recent"`
	Deviation    float64        `json:"deviation"`
	Direction    TrendDirection `json:"direction"`
	Significance float64        `json:"significance"`
	DetectedAt   time.Time      `json:"detected_at"`
}

// StrategyType identifies the bidding strategy for a campaign.
type StrategyType string

const (
	StrategyMaximizeConversions StrategyType = "maximize_conversions"
	StrategyTargetCPA           StrategyType = "target_cpa"
	StrategyTargetROAS          StrategyType = "target_roas"
	StrategyManualCPC           StrategyType = "manual_cpc"
	StrategyEnhancedCPC         StrategyType = "enhanced_cpc"
)

// BidAdjustments holds five independent per-dimension multiplier maps,
// each keyed by dimension value with a signed percentage.
type BidAdjustments struct {
	Device    map[string]float64 `json:"device,omitempty"`
	HourOfDay map[int]float64    `json:"hour_of_day,omitempty"`
	DayOfWeek map[string]float64 `json:"day_of_week,omitempty"`
	Location  map[string]float64 `json:"location,omitempty"`
	Audience  map[string]float64 `json:"audience,omitempty"`
}

// BidStrategy is the computed bidding posture for one campaign.
type BidStrategy struct {
	CampaignID  string         `json:"campaign_id"`
	Type        StrategyType   `json:"type"`
	Target      *float64       `json:"target,omitempty"`
	Adjustments BidAdjustments `json:"adjustments"`
}

// ChurnPrediction assigns a risk tier from a churn probability.
type ChurnPrediction struct {
	CustomerID  string  `json:"customer_id"`
	Probability float64 `json:"probability"`
	RiskTier    string  `json:"risk_tier"` // critical, high, medium, low
	NextAction  string  `json:"next_action,omitempty"`
}

// BatchResult collects everything one batch pass produced. All records are
// plain structured data for downstream collaborators; nothing here is a wire
// format.
type BatchResult struct {
	BatchID               string                 `json:"batch_id"`
	StartedAt             time.Time              `json:"started_at"`
	CompletedAt           time.Time              `json:"completed_at"`
	FiredActions          []FiredAction          `json:"fired_actions"`
	ReallocationProposals []ReallocationProposal `json:"reallocation_proposals"`
	BidStrategies         []BidStrategy          `json:"bid_strategies"`
	Segments              []segmentation.Segment `json:"segments"`
	SegmentAssignments    map[string]string      `json:"segment_assignments"`
	Anomalies             []Anomaly              `json:"anomalies"`
	Alerts                []Alert                `json:"alerts"`
	ChurnPredictions      []ChurnPrediction      `json:"churn_predictions"`
}
