package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/campaign-optimizer/internal/segmentation"
)

func churnProfile(id string, probability float64, stage segmentation.LifecycleStage) *segmentation.CustomerProfile {
	return &segmentation.CustomerProfile{
		CustomerID: id,
		Lifecycle: segmentation.Lifecycle{
			Stage:            stage,
			ChurnProbability: probability,
		},
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		probability float64
		want        RiskTier
	}{
		{0.95, TierCritical},
		{0.8, TierCritical}, // boundary is inclusive
		{0.79, TierHigh},
		{0.65, TierHigh},
		{0.6, TierHigh},
		{0.59, TierMedium},
		{0.4, TierMedium},
		{0.39, TierLow},
		{0.0, TierLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.probability), "probability %.2f", tc.probability)
	}
}

func TestAssessChurnUsesProfileProbability(t *testing.T) {
	svc := NewService()

	a := svc.AssessChurn(churnProfile("c-1", 0.65, segmentation.StageActive))
	assert.Equal(t, 0.65, a.Probability)
	assert.Equal(t, TierHigh, a.Tier)
	assert.Equal(t, "targeted retention campaign", a.NextAction)

	b := svc.AssessChurn(churnProfile("c-2", 0.8, segmentation.StageActive))
	assert.Equal(t, TierCritical, b.Tier)
}

func TestAssessChurnLowRiskFollowsStage(t *testing.T) {
	svc := NewService()
	a := svc.AssessChurn(churnProfile("c-3", 0.1, segmentation.StageChampion))
	assert.Equal(t, TierLow, a.Tier)
	assert.Equal(t, "advocacy and referral program", a.NextAction)
}

type fixedPredictor struct{ score float64 }

func (p fixedPredictor) PredictChurn(segmentation.FeatureVector) float64 { return p.score }

func TestAssessChurnClampsPredictor(t *testing.T) {
	svc := NewServiceWithPredictor(fixedPredictor{score: 1.7})
	a := svc.AssessChurn(churnProfile("c-4", 0, segmentation.StageActive))
	assert.Equal(t, 1.0, a.Probability)
	assert.Equal(t, TierCritical, a.Tier)
}

func TestAssessAll(t *testing.T) {
	svc := NewService()
	out := svc.AssessAll([]*segmentation.CustomerProfile{
		churnProfile("a", 0.9, segmentation.StageAtRisk),
		churnProfile("b", 0.2, segmentation.StageNewCustomer),
	})
	assert.Len(t, out, 2)
	assert.Equal(t, TierCritical, out[0].Tier)
	assert.Equal(t, TierLow, out[1].Tier)
	assert.Equal(t, "onboarding series with first-purchase incentive", out[1].NextAction)
}

func TestComputeTrendIncreasing(t *testing.T) {
	d := ComputeTrend([]float64{10, 12, 14, 16, 18})
	assert.Equal(t, TrendIncreasing, d.Direction)
	assert.InDelta(t, 1.0, d.Confidence, 0.001) // perfect linear fit
	assert.InDelta(t, 20.0, d.Forecast, 0.001)
}

func TestComputeTrendDecreasing(t *testing.T) {
	d := ComputeTrend([]float64{50, 40, 30, 20})
	assert.Equal(t, TrendDecreasing, d.Direction)
	assert.InDelta(t, 10.0, d.Forecast, 0.001)
}

func TestComputeTrendStable(t *testing.T) {
	d := ComputeTrend([]float64{100, 101, 99, 100, 100})
	assert.Equal(t, TrendStable, d.Direction)
}

func TestComputeTrendShortSeries(t *testing.T) {
	assert.Equal(t, TrendDescriptor{Direction: TrendStable}, ComputeTrend(nil))
	d := ComputeTrend([]float64{7})
	assert.Equal(t, TrendStable, d.Direction)
	assert.Equal(t, 7.0, d.Forecast)
}

func TestComputeTrendForecastFloorsAtZero(t *testing.T) {
	d := ComputeTrend([]float64{3, 2, 1, 0})
	assert.Equal(t, TrendDecreasing, d.Direction)
	assert.Equal(t, 0.0, d.Forecast)
}
