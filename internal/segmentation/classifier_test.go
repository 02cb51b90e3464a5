package segmentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func profile(id string, mutate func(*CustomerProfile)) *CustomerProfile {
	p := &CustomerProfile{
		CustomerID: id,
		Demographics: Demographics{
			Age:      34,
			Location: "US",
		},
		Behavior: Behavior{
			VisitFrequency:     2,
			AvgSessionDuration: 180,
			AvgPageViews:       4,
			EngagementScore:    40,
			LoyaltyScore:       50,
		},
		Transactions: Transactions{
			TotalRevenue:      300,
			AvgOrderValue:     60,
			PurchaseFrequency: 1,
		},
		Preferences: Preferences{
			Interests: []string{"electronics"},
			Frequency: "medium",
		},
		Lifecycle: Lifecycle{
			Stage:            StageActive,
			CLV:              500,
			ChurnProbability: 0.2,
		},
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestClassifyVIP(t *testing.T) {
	p := profile("c-1", func(p *CustomerProfile) {
		p.Transactions.TotalRevenue = 1850
		p.Behavior.LoyaltyScore = 85
	})
	assert.Equal(t, SegmentVIP, Classify(p))
}

func TestClassifyVIPRequiresBothConditions(t *testing.T) {
	revenueOnly := profile("c-2", func(p *CustomerProfile) {
		p.Transactions.TotalRevenue = 1850
		p.Behavior.LoyaltyScore = 60
	})
	loyaltyOnly := profile("c-3", func(p *CustomerProfile) {
		p.Transactions.TotalRevenue = 400
		p.Behavior.LoyaltyScore = 95
	})
	assert.NotEqual(t, SegmentVIP, Classify(revenueOnly))
	assert.NotEqual(t, SegmentVIP, Classify(loyaltyOnly))
}

func TestClassifyOrderVIPBeatsAtRisk(t *testing.T) {
	// High churn probability does not demote a customer who already
	// matched the VIP predicate.
	p := profile("c-4", func(p *CustomerProfile) {
		p.Transactions.TotalRevenue = 2000
		p.Behavior.LoyaltyScore = 90
		p.Lifecycle.ChurnProbability = 0.9
	})
	assert.Equal(t, SegmentVIP, Classify(p))
}

func TestClassifyNewCustomer(t *testing.T) {
	p := profile("c-5", func(p *CustomerProfile) {
		p.Lifecycle.Stage = StageNewCustomer
		p.Behavior.EngagementScore = 95
	})
	assert.Equal(t, SegmentNew, Classify(p))
}

func TestClassifyAtRisk(t *testing.T) {
	p := profile("c-6", func(p *CustomerProfile) {
		p.Lifecycle.ChurnProbability = 0.65
	})
	assert.Equal(t, SegmentAtRisk, Classify(p))

	// Boundary: exactly 0.6 is not strictly greater.
	boundary := profile("c-7", func(p *CustomerProfile) {
		p.Lifecycle.ChurnProbability = 0.6
	})
	assert.NotEqual(t, SegmentAtRisk, Classify(boundary))
}

func TestClassifyEngaged(t *testing.T) {
	p := profile("c-8", func(p *CustomerProfile) {
		p.Behavior.EngagementScore = 75
	})
	assert.Equal(t, SegmentEngaged, Classify(p))
}

func TestClassifyMassMarketFallback(t *testing.T) {
	assert.Equal(t, SegmentMass, Classify(profile("c-9", nil)))
}

func TestExtractFeaturesOrdinal(t *testing.T) {
	for freq, want := range map[string]float64{"high": 3, "medium": 2, "low": 1, "": 0, "weekly": 0} {
		p := profile("c-10", func(p *CustomerProfile) { p.Preferences.Frequency = freq })
		assert.Equal(t, want, ExtractFeatures(p).PreferenceFreq, "frequency %q", freq)
	}
}

func TestExtractFeaturesDimensions(t *testing.T) {
	p := profile("c-11", func(p *CustomerProfile) {
		p.Interactions = []Interaction{
			{Type: "view", OccurredAt: time.Now()},
			{Type: "purchase", OccurredAt: time.Now()},
		}
	})
	f := ExtractFeatures(p)
	assert.Len(t, f.Values(), 13)
	assert.Equal(t, 2.0, f.InteractionCount)
	assert.Equal(t, 34.0, f.Age)
	assert.Equal(t, 300.0, f.TotalRevenue)
}

func TestBuildSegmentsWholesale(t *testing.T) {
	now := time.Now()
	profiles := []*CustomerProfile{
		profile("vip-1", func(p *CustomerProfile) {
			p.Transactions.TotalRevenue = 1500
			p.Behavior.LoyaltyScore = 90
			p.Behavior.EngagementScore = 80
			p.Preferences.Interests = []string{"travel", "fashion"}
		}),
		profile("vip-2", func(p *CustomerProfile) {
			p.Transactions.TotalRevenue = 2500
			p.Behavior.LoyaltyScore = 85
			p.Behavior.EngagementScore = 60
			p.Preferences.Interests = []string{"travel"}
		}),
		profile("mass-1", nil),
	}

	segments := BuildSegments(profiles, now)

	// All five segments come back, including empty ones.
	assert.Len(t, segments, 5)
	byLabel := make(map[SegmentLabel]Segment, len(segments))
	for _, s := range segments {
		byLabel[s.Label] = s
	}

	vip := byLabel[SegmentVIP]
	assert.Equal(t, 2, vip.Size)
	assert.ElementsMatch(t, []string{"vip-1", "vip-2"}, vip.MemberIDs)
	assert.InDelta(t, 2000.0, vip.Characteristics.AvgRevenue, 0.001)
	assert.InDelta(t, 70.0, vip.Characteristics.AvgEngagement, 0.001)
	assert.Equal(t, []string{"travel", "fashion"}, vip.Characteristics.TopInterests)

	assert.Equal(t, 1, byLabel[SegmentMass].Size)
	assert.Equal(t, 0, byLabel[SegmentAtRisk].Size)
	assert.Empty(t, byLabel[SegmentAtRisk].MemberIDs)
	assert.NotEmpty(t, vip.Strategy)
	assert.Equal(t, now, vip.ComputedAt)
}

func TestTopInterestsDeterministicTies(t *testing.T) {
	counts := map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}
	assert.Equal(t, []string{"c", "a", "b"}, topInterests(counts, 3))
}

func TestValidateProfile(t *testing.T) {
	assert.NoError(t, ValidateProfile(profile("ok", nil)))
	assert.Error(t, ValidateProfile(&CustomerProfile{}))
	assert.Error(t, ValidateProfile(profile("bad", func(p *CustomerProfile) {
		p.Lifecycle.ChurnProbability = 1.4
	})))
}
