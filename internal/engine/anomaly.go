package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Anomaly detection parameters. The significance constant is a documented
// placeholder; there is no real statistical test behind it yet.
const (
	anomalyDeviation    = 0.3
	anomalyRecentWindow = 3
	anomalySignificance = 0.85
)

// Alerting thresholds over campaign aggregates.
const (
	budgetPaceCriticalPct = 0.40 // cost above 40% of monthly budget
	lowCTRWarningPct      = 0.01 // CTR below 1%
)

// AnomalyDetector flags deviations between a recent hourly window and the
// series baseline, and raises budget-pace and CTR alerts.
type AnomalyDetector struct {
	monthlyBudget float64
}

// NewAnomalyDetector creates a detector for a given monthly budget pool.
func NewAnomalyDetector(monthlyBudget float64) *AnomalyDetector {
	return &AnomalyDetector{monthlyBudget: monthlyBudget}
}

// DetectSeries checks one named hourly series for a campaign. The baseline
// is the mean of all buckets and "recent" the mean of the last three; an
// anomaly fires when the relative deviation exceeds 0.3. A zero baseline is
// treated as no anomaly, never as a division error. Detection is scale
// invariant for non-zero baselines.
func (d *AnomalyDetector) DetectSeries(campaignID, metric string, series []float64, now time.Time) *Anomaly {
	if len(series) < anomalyRecentWindow {
		return nil
	}

	var sum float64
	for _, v := range series {
		sum += v
	}
	baseline := sum / float64(len(series))
	if baseline == 0 {
		return nil
	}

	var recentSum float64
	for _, v := range series[len(series)-anomalyRecentWindow:] {
		recentSum += v
	}
	recent := recentSum / anomalyRecentWindow

	deviation := math.Abs(recent-baseline) / baseline
	if deviation <= anomalyDeviation {
		return nil
	}

	direction := TrendDecreasing
	if recent > baseline {
		direction = TrendIncreasing
	}

	return &Anomaly{
		ID:           uuid.New().String(),
		CampaignID:   campaignID,
		Metric:       metric,
		Baseline:     baseline,
		Recent:       recent,
		Deviation:    deviation,
		Direction:    direction,
		Significance: anomalySignificance,
		DetectedAt:   now,
	}
}

// Detect runs series detection over a snapshot's hourly click and conversion
// series.
func (d *AnomalyDetector) Detect(snapshot *MetricSnapshot, now time.Time) []Anomaly {
	if len(snapshot.Hourly) == 0 {
		return nil
	}

	clicks := make([]float64, len(snapshot.Hourly))
	convs := make([]float64, len(snapshot.Hourly))
	for i, b := range snapshot.Hourly {
		clicks[i] = float64(b.Clicks)
		convs[i] = float64(b.Conversions)
	}

	var out []Anomaly
	if a := d.DetectSeries(snapshot.CampaignID, "clicks", clicks, now); a != nil {
		out = append(out, *a)
	}
	if a := d.DetectSeries(snapshot.CampaignID, "conversions", convs, now); a != nil {
		out = append(out, *a)
	}
	return out
}

// Alerts raises the independent budget-pace and low-CTR alerts for one
// campaign. Both checks may fire in the same pass.
func (d *AnomalyDetector) Alerts(snapshot *MetricSnapshot, now time.Time) []Alert {
	m := snapshot.Metrics
	m.DeriveRates()

	var alerts []Alert
	if d.monthlyBudget > 0 && m.Cost > d.monthlyBudget*budgetPaceCriticalPct {
		alerts = append(alerts, Alert{
			ID:         uuid.New().String(),
			CampaignID: snapshot.CampaignID,
			Severity:   SeverityCritical,
			Type:       "budget_pace",
			Message:    fmt.Sprintf("cost %.2f exceeds %.0f%% of monthly budget %.2f", m.Cost, budgetPaceCriticalPct*100, d.monthlyBudget),
			Observed:   m.Cost,
			Threshold:  d.monthlyBudget * budgetPaceCriticalPct,
			CreatedAt:  now,
		})
	}
	if m.Impressions > 0 && m.CTR < lowCTRWarningPct {
		alerts = append(alerts, Alert{
			ID:         uuid.New().String(),
			CampaignID: snapshot.CampaignID,
			Severity:   SeverityWarning,
			Type:       "low_ctr",
			Message:    fmt.Sprintf("CTR %.2f%% below %.1f%%", m.CTR*100, lowCTRWarningPct*100),
			Observed:   m.CTR,
			Threshold:  lowCTRWarningPct,
			CreatedAt:  now,
		})
	}
	return alerts
}
