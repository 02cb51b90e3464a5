// Package intelligence scores churn risk, recommends lifecycle actions, and
// fits trend descriptors over hourly series. Scoring runs through a
// Predictor seam so a trained model can replace the default heuristic
// without touching callers.
package intelligence

import (
	"log"
	"math"

	"github.com/ignite/campaign-optimizer/internal/segmentation"
)

// RiskTier buckets a churn probability into an action tier.
type RiskTier string

const (
	TierCritical RiskTier = "critical"
	TierHigh     RiskTier = "high"
	TierMedium   RiskTier = "medium"
	TierLow      RiskTier = "low"
)

// Churn tier boundaries, half-open: a probability of exactly 0.8 is
// critical, exactly 0.6 is high, exactly 0.4 is medium.
const (
	tierCriticalFloor = 0.8
	tierHighFloor     = 0.6
	tierMediumFloor   = 0.4
)

// Predictor maps a customer feature vector to a churn probability in [0,1].
type Predictor interface {
	PredictChurn(f segmentation.FeatureVector) float64
}

// passthroughPredictor returns the churn probability already carried on the
// profile. It stands in until a trained model is wired behind the Predictor
// seam; the tiering and action logic downstream is model-agnostic.
type passthroughPredictor struct{}

func (passthroughPredictor) PredictChurn(f segmentation.FeatureVector) float64 {
	return f.ChurnProbability
}

// ChurnAssessment is one customer's scored churn risk with the recommended
// follow-up.
type ChurnAssessment struct {
	CustomerID  string   `json:"customer_id"`
	Probability float64  `json:"probability"`
	Tier        RiskTier `json:"tier"`
	NextAction  string   `json:"next_action"`
}

// Service scores profiles and computes trend descriptors.
type Service struct {
	predictor Predictor
}

// NewService creates a service with the passthrough predictor.
func NewService() *Service {
	return &Service{predictor: passthroughPredictor{}}
}

// NewServiceWithPredictor creates a service backed by a custom predictor.
func NewServiceWithPredictor(p Predictor) *Service {
	return &Service{predictor: p}
}

// TierFor buckets a churn probability.
func TierFor(probability float64) RiskTier {
	switch {
	case probability >= tierCriticalFloor:
		return TierCritical
	case probability >= tierHighFloor:
		return TierHigh
	case probability >= tierMediumFloor:
		return TierMedium
	}
	return TierLow
}

// AssessChurn scores one profile, clamps the prediction into [0,1], and
// attaches the recommended action for the resulting tier.
func (s *Service) AssessChurn(p *segmentation.CustomerProfile) ChurnAssessment {
	prob := s.predictor.PredictChurn(segmentation.ExtractFeatures(p))
	prob = math.Max(0, math.Min(1, prob))
	tier := TierFor(prob)
	return ChurnAssessment{
		CustomerID:  p.CustomerID,
		Probability: prob,
		Tier:        tier,
		NextAction:  nextAction(tier, p.Lifecycle.Stage),
	}
}

// AssessAll scores a cohort.
func (s *Service) AssessAll(profiles []*segmentation.CustomerProfile) []ChurnAssessment {
	out := make([]ChurnAssessment, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, s.AssessChurn(p))
	}
	log.Printf("[intelligence] assessed churn for %d customers", len(out))
	return out
}

// nextAction recommends a follow-up. Elevated tiers override the lifecycle
// stage; low-risk customers get the stage-appropriate action.
func nextAction(tier RiskTier, stage segmentation.LifecycleStage) string {
	switch tier {
	case TierCritical:
		return "immediate win-back offer with personal outreach"
	case TierHigh:
		return "targeted retention campaign"
	case TierMedium:
		return "engagement nurture sequence"
	}
	return NextActionForStage(stage)
}

// NextActionForStage maps a lifecycle stage to its standing recommendation.
func NextActionForStage(stage segmentation.LifecycleStage) string {
	switch stage {
	case segmentation.StageProspect:
		return "qualification and first-touch campaign"
	case segmentation.StageNewCustomer:
		return "onboarding series with first-purchase incentive"
	case segmentation.StageActive:
		return "cross-sell recommendations"
	case segmentation.StageAtRisk:
		return "re-engagement offer"
	case segmentation.StageInactive:
		return "reactivation campaign"
	case segmentation.StageChampion:
		return "advocacy and referral program"
	}
	return "standard lifecycle messaging"
}
