package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-optimizer/internal/intelligence"
	"github.com/ignite/campaign-optimizer/internal/segmentation"
)

// Options configures a decision engine instance.
type Options struct {
	Rules         []*OptimizationRule
	MonthlyBudget float64
	Tables        StaticAdjustmentTables
	Intelligence  *intelligence.Service
}

// Engine composes the store, rule engine, allocator, bid calculator, anomaly
// detector and intelligence service into one batch pipeline. Batch runs are
// serialized: overlapping RunBatch calls queue behind the mutex so rule
// timestamps see one writer at a time.
type Engine struct {
	store     *SnapshotStore
	rules     *RuleEngine
	allocator *BudgetAllocator
	bids      *BidCalculator
	detector  *AnomalyDetector
	intel     *intelligence.Service

	mu         sync.Mutex
	lastResult *BatchResult
}

// NewEngine validates the rule set and assembles an engine.
func NewEngine(opts Options) (*Engine, error) {
	rules, err := NewRuleEngine(opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("rule engine: %w", err)
	}
	intel := opts.Intelligence
	if intel == nil {
		intel = intelligence.NewService()
	}
	return &Engine{
		store:     NewSnapshotStore(),
		rules:     rules,
		allocator: NewBudgetAllocator(opts.MonthlyBudget),
		bids:      NewBidCalculator(opts.Tables),
		detector:  NewAnomalyDetector(opts.MonthlyBudget),
		intel:     intel,
	}, nil
}

// Store exposes the engine's snapshot store for ingestion and reads.
func (e *Engine) Store() *SnapshotStore { return e.store }

// Rules exposes the configured rule set in evaluation order.
func (e *Engine) Rules() []*OptimizationRule { return e.rules.Rules() }

// LastResult returns the most recent batch result, or nil before the first
// run.
func (e *Engine) LastResult() *BatchResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastResult
}

// RunBatch executes one full decision pass over everything currently in the
// store: per campaign it refreshes the trend descriptor, evaluates rules,
// proposes reallocations, computes bid strategies and runs anomaly and alert
// detection; then it rebuilds customer segments and churn assessments.
//
// The pass is decide-only: it mutates nothing but rule timestamps and the
// snapshots' trend blocks, and calls no external system. Campaigns are
// processed in id order so identical stores produce identically ordered
// results. Conflicting rule firings are returned as-is for the caller to
// resolve.
func (e *Engine) RunBatch(ctx context.Context) (*BatchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	result := &BatchResult{
		BatchID:            uuid.New().String(),
		StartedAt:          started,
		SegmentAssignments: make(map[string]string),
	}

	campaigns := e.store.Campaigns()
	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CampaignID < campaigns[j].CampaignID
	})

	for _, snap := range campaigns {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch %s aborted: %w", result.BatchID, err)
		}

		e.refreshTrend(snap)

		result.FiredActions = append(result.FiredActions, e.rules.Evaluate(snap, started)...)
		if p := e.allocator.Allocate(snap, campaigns, 0); p != nil {
			result.ReallocationProposals = append(result.ReallocationProposals, *p)
		}
		result.BidStrategies = append(result.BidStrategies, e.bids.SelectStrategy(snap))
		result.Anomalies = append(result.Anomalies, e.detector.Detect(snap, started)...)
		result.Alerts = append(result.Alerts, e.detector.Alerts(snap, started)...)
	}

	profiles := e.store.Customers()
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CustomerID < profiles[j].CustomerID
	})

	result.Segments = segmentation.BuildSegments(profiles, started)
	for _, seg := range result.Segments {
		for _, id := range seg.MemberIDs {
			result.SegmentAssignments[id] = string(seg.Label)
		}
	}
	for _, a := range e.intel.AssessAll(profiles) {
		result.ChurnPredictions = append(result.ChurnPredictions, ChurnPrediction{
			CustomerID:  a.CustomerID,
			Probability: a.Probability,
			RiskTier:    string(a.Tier),
			NextAction:  a.NextAction,
		})
	}

	result.CompletedAt = time.Now()
	e.lastResult = result
	log.Printf("[engine] batch=%s campaigns=%d customers=%d actions=%d proposals=%d anomalies=%d alerts=%d took=%s",
		result.BatchID, len(campaigns), len(profiles), len(result.FiredActions),
		len(result.ReallocationProposals), len(result.Anomalies), len(result.Alerts),
		result.CompletedAt.Sub(started).Round(time.Millisecond))
	return result, nil
}

// refreshTrend fits the trend descriptor over the snapshot's hourly click
// series.
func (e *Engine) refreshTrend(snap *MetricSnapshot) {
	if len(snap.Hourly) == 0 {
		return
	}
	series := make([]float64, len(snap.Hourly))
	for i, b := range snap.Hourly {
		series[i] = float64(b.Clicks)
	}
	d := intelligence.ComputeTrend(series)
	snap.Trend = TrendInfo{
		Direction:  TrendDirection(d.Direction),
		Confidence: d.Confidence,
		Forecast:   []float64{d.Forecast},
	}
}
