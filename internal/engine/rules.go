package engine

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// knownMetrics are the snapshot fields a rule condition may reference.
var knownMetrics = map[string]bool{
	"impressions": true, "clicks": true, "conversions": true,
	"cost": true, "revenue": true,
	"ctr": true, "cpc": true, "cpa": true, "roas": true,
}

// validComparators are the only operators a rule condition may use.
var validComparators = map[string]bool{
	">": true, "<": true, ">=": true, "<=": true, "==": true,
}

// validFrequencies gate how often a rule may fire.
var validFrequencies = map[Frequency]bool{
	FrequencyHourly: true, FrequencyDaily: true, FrequencyWeekly: true,
}

// RuleEngine evaluates a prioritized rule set against campaign snapshots.
// Rule timestamps are the only state it mutates; a mutex over the rule set
// keeps that mutation single-writer when a host parallelizes across
// campaigns.
type RuleEngine struct {
	mu    sync.Mutex
	rules []*OptimizationRule
}

// NewRuleEngine validates and adopts a rule set. A single malformed rule
// rejects the whole set with a ConfigurationError; nothing is skipped
// silently.
func NewRuleEngine(rules []*OptimizationRule) (*RuleEngine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	return &RuleEngine{rules: rules}, nil
}

// ValidateRules checks every rule for an unknown comparator, frequency,
// priority, or missing metric. Load-time only; evaluation assumes a valid
// set.
func ValidateRules(rules []*OptimizationRule) error {
	for _, r := range rules {
		if !knownMetrics[r.Metric] {
			return &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unknown metric %q", r.Metric)}
		}
		if !validComparators[r.Operator] {
			return &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unknown comparator %q", r.Operator)}
		}
		if !validFrequencies[r.Frequency] {
			return &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unknown frequency %q", r.Frequency)}
		}
		if r.Priority.rank() == 0 {
			return &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unknown priority %q", r.Priority)}
		}
	}
	return nil
}

// Rules returns the engine's rule set in evaluation order.
func (e *RuleEngine) Rules() []*OptimizationRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*OptimizationRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every enabled rule against a snapshot and returns the firing
// rules in priority order (high > medium > low, ties broken by configuration
// order). A rule fires only when its condition holds AND the elapsed time
// since its last execution is at least its frequency interval; a rule that
// never fired passes the gate. On firing, LastExecuted is set to now exactly
// once, so a second Evaluate at the same timestamp re-fires nothing. The gate
// lives on the rule, not on the (rule, campaign) pair: a rule that fires for
// one campaign is gated for every later campaign in the same pass.
//
// Conflicting actions (one rule raising a bid, another lowering it) are NOT
// reconciled here: all firings are returned and resolution is caller
// policy.
func (e *RuleEngine) Evaluate(snapshot *MetricSnapshot, now time.Time) []FiredAction {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Stable sort keeps configuration order within equal priorities.
	ordered := make([]*OptimizationRule, len(e.rules))
	copy(ordered, e.rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority.rank() > ordered[j].Priority.rank()
	})

	var fired []FiredAction
	for _, r := range ordered {
		if !r.Enabled {
			continue
		}
		if r.LastExecuted != nil && now.Sub(*r.LastExecuted) < r.Frequency.Interval() {
			continue
		}
		value, ok := metricValue(snapshot, r.Metric)
		if !ok {
			continue
		}
		if !compare(value, r.Operator, r.Threshold) {
			continue
		}

		ts := now
		r.LastExecuted = &ts
		fired = append(fired, FiredAction{
			ID:         uuid.New().String(),
			RuleID:     r.ID,
			RuleName:   r.Name,
			CampaignID: snapshot.CampaignID,
			Action:     r.Action,
			Metric:     r.Metric,
			Observed:   value,
			Threshold:  r.Threshold,
			Priority:   r.Priority,
			FiredAt:    now,
		})
	}

	if len(fired) > 0 {
		log.Printf("[rules] campaign=%s fired=%d", snapshot.CampaignID, len(fired))
	}
	return fired
}

func compare(value float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	}
	return false
}

// metricValue resolves a rule metric name against a snapshot. Derived rates
// are recomputed from the raw counters so rules always see consistent
// values.
func metricValue(s *MetricSnapshot, name string) (float64, bool) {
	m := s.Metrics
	m.DeriveRates()
	switch name {
	case "impressions":
		return float64(m.Impressions), true
	case "clicks":
		return float64(m.Clicks), true
	case "conversions":
		return float64(m.Conversions), true
	case "cost":
		return m.Cost, true
	case "revenue":
		return m.Revenue, true
	case "ctr":
		return m.CTR, true
	case "cpc":
		return m.CPC, true
	case "cpa":
		return m.CPA, true
	case "roas":
		return m.ROAS, true
	}
	return 0, false
}
