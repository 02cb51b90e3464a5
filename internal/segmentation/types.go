// Package segmentation assigns customers to exactly one segment using an
// ordered set of disjoint predicates over a fixed feature projection, and
// rebuilds segment-level aggregates wholesale on each batch run.
package segmentation

import (
	"time"
)

// LifecycleStage is the authoritative customer lifecycle label.
type LifecycleStage string

const (
	StageProspect    LifecycleStage = "prospect"
	StageNewCustomer LifecycleStage = "new_customer"
	StageActive      LifecycleStage = "active"
	StageAtRisk      LifecycleStage = "at_risk"
	StageInactive    LifecycleStage = "inactive"
	StageChampion    LifecycleStage = "champion"
)

// SegmentLabel is one of the five segment assignments.
type SegmentLabel string

const (
	SegmentVIP      SegmentLabel = "vip_customers"
	SegmentNew      SegmentLabel = "new_customers"
	SegmentAtRisk   SegmentLabel = "at_risk_customers"
	SegmentEngaged  SegmentLabel = "engaged_customers"
	SegmentMass     SegmentLabel = "mass_market"
)

// AllSegmentLabels returns the five labels in classification order.
func AllSegmentLabels() []SegmentLabel {
	return []SegmentLabel{SegmentVIP, SegmentNew, SegmentAtRisk, SegmentEngaged, SegmentMass}
}

// Demographics is the customer demographic block.
type Demographics struct {
	Age      int    `json:"age"`
	Gender   string `json:"gender,omitempty"`
	Location string `json:"location,omitempty"`
}

// Behavior holds visit and engagement statistics. Engagement and loyalty
// scores are 0-100.
type Behavior struct {
	VisitFrequency     float64 `json:"visit_frequency"` // visits per week
	AvgSessionDuration float64 `json:"avg_session_duration"`
	AvgPageViews       float64 `json:"avg_page_views"`
	EngagementScore    float64 `json:"engagement_score"`
	LoyaltyScore       float64 `json:"loyalty_score"`
}

// Transactions holds the monetary block.
type Transactions struct {
	TotalRevenue      float64    `json:"total_revenue"`
	AvgOrderValue     float64    `json:"avg_order_value"`
	PurchaseFrequency float64    `json:"purchase_frequency"` // purchases per month
	LastPurchaseAt    *time.Time `json:"last_purchase_at,omitempty"`
}

// Interaction is one append-only event on a customer timeline.
type Interaction struct {
	Type       string    `json:"type"` // view, click, purchase, support
	Channel    string    `json:"channel,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Preferences holds declared customer preferences. Frequency is an ordinal
// high/medium/low.
type Preferences struct {
	Interests []string `json:"interests,omitempty"`
	Channel   string   `json:"channel,omitempty"`
	Frequency string   `json:"frequency,omitempty"` // high, medium, low
}

// StageChange is one append-only lifecycle transition.
type StageChange struct {
	From      LifecycleStage `json:"from"`
	To        LifecycleStage `json:"to"`
	ChangedAt time.Time      `json:"changed_at"`
}

// Lifecycle holds the lifecycle block. Stage is the authoritative label for
// classification; ChurnProbability is the authoritative input for risk
// tiering. The two are independently computed and not guaranteed consistent
// with each other.
type Lifecycle struct {
	Stage            LifecycleStage `json:"stage"`
	StageHistory     []StageChange  `json:"stage_history,omitempty"`
	CLV              float64        `json:"clv"`
	ChurnProbability float64        `json:"churn_probability"` // 0..1
	NextAction       string         `json:"next_action,omitempty"`
}

// CustomerProfile is the full per-customer record. Owned by the batch
// invocation that created it; nothing here persists across runs.
type CustomerProfile struct {
	CustomerID   string        `json:"customer_id"`
	Demographics Demographics  `json:"demographics"`
	Behavior     Behavior      `json:"behavior"`
	Transactions Transactions  `json:"transactions"`
	Interactions []Interaction `json:"interactions,omitempty"`
	Preferences  Preferences   `json:"preferences"`
	Lifecycle    Lifecycle     `json:"lifecycle"`
}

// FeatureVector is the fixed 13-dimensional projection used by the
// classifier and by any substituted predictor.
type FeatureVector struct {
	Age                float64 `json:"age"`
	VisitFrequency     float64 `json:"visit_frequency"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	AvgPageViews       float64 `json:"avg_page_views"`
	EngagementScore    float64 `json:"engagement_score"`
	LoyaltyScore       float64 `json:"loyalty_score"`
	TotalRevenue       float64 `json:"total_revenue"`
	AvgOrderValue      float64 `json:"avg_order_value"`
	PurchaseFrequency  float64 `json:"purchase_frequency"`
	CLV                float64 `json:"clv"`
	ChurnProbability   float64 `json:"churn_probability"`
	InteractionCount   float64 `json:"interaction_count"`
	PreferenceFreq     float64 `json:"preference_freq"` // high=3, medium=2, low=1
}

// Values returns the projection as an ordered slice for predictors that
// consume raw feature arrays.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.Age, f.VisitFrequency, f.AvgSessionDuration, f.AvgPageViews,
		f.EngagementScore, f.LoyaltyScore, f.TotalRevenue, f.AvgOrderValue,
		f.PurchaseFrequency, f.CLV, f.ChurnProbability, f.InteractionCount,
		f.PreferenceFreq,
	}
}

// SegmentCharacteristics are cohort aggregates recomputed as mean/mode over
// the current members on each run.
type SegmentCharacteristics struct {
	AvgRevenue    float64  `json:"avg_revenue"`
	AvgEngagement float64  `json:"avg_engagement"`
	TopInterests  []string `json:"top_interests,omitempty"`
}

// Segment is one recomputed segment with its cached population size,
// aggregates, and recommended strategy. Segments are rebuilt wholesale each
// batch; there is no incremental update contract.
type Segment struct {
	ID              string                 `json:"id"`
	Label           SegmentLabel           `json:"label"`
	Name            string                 `json:"name"`
	Criteria        string                 `json:"criteria"`
	Size            int                    `json:"size"`
	Characteristics SegmentCharacteristics `json:"characteristics"`
	Strategy        string                 `json:"strategy"`
	MemberIDs       []string               `json:"member_ids,omitempty"`
	ComputedAt      time.Time              `json:"computed_at"`
}
