package segmentation

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Classification thresholds. The predicates are evaluated in a fixed order
// and the first match wins, so the thresholds may overlap without producing
// ambiguous assignments.
const (
	vipRevenueFloor    = 1000.0
	vipLoyaltyFloor    = 80.0
	atRiskChurnFloor   = 0.6
	engagedScoreFloor  = 70.0
	topInterestsLimit  = 3
)

// segmentMeta is the static half of a segment: display name, human-readable
// criteria, and the recommended marketing strategy.
var segmentMeta = map[SegmentLabel]struct {
	name     string
	criteria string
	strategy string
}{
	SegmentVIP: {
		name:     "VIP Customers",
		criteria: "total revenue > 1000 and loyalty score > 80",
		strategy: "white-glove retention: early access, dedicated support, loyalty rewards",
	},
	SegmentNew: {
		name:     "New Customers",
		criteria: "lifecycle stage is new_customer",
		strategy: "onboarding nurture: welcome series, first-purchase incentives",
	},
	SegmentAtRisk: {
		name:     "At-Risk Customers",
		criteria: "churn probability > 0.6",
		strategy: "win-back: re-engagement offers, satisfaction outreach",
	},
	SegmentEngaged: {
		name:     "Engaged Customers",
		criteria: "engagement score > 70",
		strategy: "upsell and cross-sell: personalized recommendations",
	},
	SegmentMass: {
		name:     "Mass Market",
		criteria: "no prior predicate matched",
		strategy: "broad reach: seasonal promotions, brand campaigns",
	},
}

// ExtractFeatures projects a profile onto the fixed feature vector used by
// classification and churn scoring. The preference frequency ordinal maps
// high=3, medium=2, low=1; anything else (including empty) is 0.
func ExtractFeatures(p *CustomerProfile) FeatureVector {
	return FeatureVector{
		Age:                float64(p.Demographics.Age),
		VisitFrequency:     p.Behavior.VisitFrequency,
		AvgSessionDuration: p.Behavior.AvgSessionDuration,
		AvgPageViews:       p.Behavior.AvgPageViews,
		EngagementScore:    p.Behavior.EngagementScore,
		LoyaltyScore:       p.Behavior.LoyaltyScore,
		TotalRevenue:       p.Transactions.TotalRevenue,
		AvgOrderValue:      p.Transactions.AvgOrderValue,
		PurchaseFrequency:  p.Transactions.PurchaseFrequency,
		CLV:                p.Lifecycle.CLV,
		ChurnProbability:   p.Lifecycle.ChurnProbability,
		InteractionCount:   float64(len(p.Interactions)),
		PreferenceFreq:     preferenceOrdinal(p.Preferences.Frequency),
	}
}

func preferenceOrdinal(freq string) float64 {
	switch freq {
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	}
	return 0
}

// Classify assigns exactly one segment label. Predicates run in a fixed
// order and the first match wins:
//
//  1. revenue > 1000 and loyalty > 80      -> vip_customers
//  2. lifecycle stage == new_customer      -> new_customers
//  3. churn probability > 0.6              -> at_risk_customers
//  4. engagement score > 70                -> engaged_customers
//  5. otherwise                            -> mass_market
//
// A high-revenue, high-loyalty customer with elevated churn probability is
// therefore VIP, not at-risk.
func Classify(p *CustomerProfile) SegmentLabel {
	f := ExtractFeatures(p)
	switch {
	case f.TotalRevenue > vipRevenueFloor && f.LoyaltyScore > vipLoyaltyFloor:
		return SegmentVIP
	case p.Lifecycle.Stage == StageNewCustomer:
		return SegmentNew
	case f.ChurnProbability > atRiskChurnFloor:
		return SegmentAtRisk
	case f.EngagementScore > engagedScoreFloor:
		return SegmentEngaged
	}
	return SegmentMass
}

// BuildSegments classifies every profile and rebuilds all five segments
// wholesale, including empty ones, with aggregates recomputed from the
// current membership. Segments from a previous run are never patched
// incrementally.
func BuildSegments(profiles []*CustomerProfile, now time.Time) []Segment {
	members := make(map[SegmentLabel][]*CustomerProfile, 5)
	for _, p := range profiles {
		label := Classify(p)
		members[label] = append(members[label], p)
	}

	segments := make([]Segment, 0, 5)
	for _, label := range AllSegmentLabels() {
		meta := segmentMeta[label]
		seg := Segment{
			ID:         uuid.New().String(),
			Label:      label,
			Name:       meta.name,
			Criteria:   meta.criteria,
			Strategy:   meta.strategy,
			Size:       len(members[label]),
			ComputedAt: now,
		}
		seg.Characteristics = characteristics(members[label])
		for _, p := range members[label] {
			seg.MemberIDs = append(seg.MemberIDs, p.CustomerID)
		}
		segments = append(segments, seg)
	}

	log.Printf("[segmentation] classified %d profiles into %d segments", len(profiles), len(segments))
	return segments
}

// characteristics computes mean revenue, mean engagement, and the most
// common interests over a segment's members.
func characteristics(members []*CustomerProfile) SegmentCharacteristics {
	if len(members) == 0 {
		return SegmentCharacteristics{}
	}

	var revenue, engagement float64
	counts := make(map[string]int)
	for _, p := range members {
		revenue += p.Transactions.TotalRevenue
		engagement += p.Behavior.EngagementScore
		for _, interest := range p.Preferences.Interests {
			counts[interest]++
		}
	}

	return SegmentCharacteristics{
		AvgRevenue:    revenue / float64(len(members)),
		AvgEngagement: engagement / float64(len(members)),
		TopInterests:  topInterests(counts, topInterestsLimit),
	}
}

// topInterests returns up to limit interests by descending count, ties
// broken alphabetically so the result is deterministic.
func topInterests(counts map[string]int, limit int) []string {
	if len(counts) == 0 {
		return nil
	}
	interests := make([]string, 0, len(counts))
	for interest := range counts {
		interests = append(interests, interest)
	}
	sort.Slice(interests, func(i, j int) bool {
		if counts[interests[i]] != counts[interests[j]] {
			return counts[interests[i]] > counts[interests[j]]
		}
		return interests[i] < interests[j]
	})
	if len(interests) > limit {
		interests = interests[:limit]
	}
	return interests
}

// ValidateProfile rejects profiles the classifier cannot score coherently.
func ValidateProfile(p *CustomerProfile) error {
	if p.CustomerID == "" {
		return fmt.Errorf("profile missing customer id")
	}
	if p.Lifecycle.ChurnProbability < 0 || p.Lifecycle.ChurnProbability > 1 {
		return fmt.Errorf("profile %s: churn probability %.2f outside [0,1]", p.CustomerID, p.Lifecycle.ChurnProbability)
	}
	return nil
}
