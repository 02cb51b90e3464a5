package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roasSnapshot(id string, cost, revenue float64) *MetricSnapshot {
	return &MetricSnapshot{
		CampaignID: id,
		Metrics:    AggregateMetrics{Clicks: 100, Conversions: 10, Cost: cost, Revenue: revenue},
	}
}

func TestAllocateIncreaseAboveDeadZone(t *testing.T) {
	a := NewBudgetAllocator(10000)
	// ROAS 4.0 against cohort mean (4.0+2.0+1.2)/3 = 2.4; 4.0 > 2.4*1.2.
	winner := roasSnapshot("win", 100, 400)
	cohort := []*MetricSnapshot{winner, roasSnapshot("mid", 100, 200), roasSnapshot("low", 100, 120)}

	p := a.Allocate(winner, cohort, 3000)
	require.NotNil(t, p)
	assert.Equal(t, "increase", p.Direction)
	assert.Equal(t, 20.0, p.ChangePct)
	assert.InDelta(t, 3600.0, p.ProposedAllocation, 0.001)
	assert.InDelta(t, 2.4, p.CohortROAS, 0.001)
}

func TestAllocateDecreaseBelowDeadZone(t *testing.T) {
	a := NewBudgetAllocator(10000)
	// ROAS 1.2 < 2.4*0.8 = 1.92.
	loser := roasSnapshot("low", 100, 120)
	cohort := []*MetricSnapshot{roasSnapshot("win", 100, 400), roasSnapshot("mid", 100, 200), loser}

	p := a.Allocate(loser, cohort, 3000)
	require.NotNil(t, p)
	assert.Equal(t, "decrease", p.Direction)
	assert.InDelta(t, 2400.0, p.ProposedAllocation, 0.001)
}

func TestAllocateDeadZoneIsQuiet(t *testing.T) {
	a := NewBudgetAllocator(10000)
	// ROAS 2.0 sits inside [1.92, 2.88]: no proposal.
	mid := roasSnapshot("mid", 100, 200)
	cohort := []*MetricSnapshot{roasSnapshot("win", 100, 400), mid, roasSnapshot("low", 100, 120)}
	assert.Nil(t, a.Allocate(mid, cohort, 3000))
}

func TestAllocateDeadZoneBoundariesInclusive(t *testing.T) {
	a := NewBudgetAllocator(10000)
	// Cohort of one: mean equals the campaign's own ROAS, so both boundary
	// comparisons are exact equality and nothing fires.
	solo := roasSnapshot("solo", 100, 300)
	assert.Nil(t, a.Allocate(solo, []*MetricSnapshot{solo}, 1000))
}

func TestAllocateEmptyCohort(t *testing.T) {
	a := NewBudgetAllocator(10000)
	assert.Nil(t, a.Allocate(roasSnapshot("c", 100, 400), nil, 1000))
}

func TestAllocateZeroCurrentAssumesEqualShare(t *testing.T) {
	a := NewBudgetAllocator(9000)
	winner := roasSnapshot("win", 100, 400)
	cohort := []*MetricSnapshot{winner, roasSnapshot("mid", 100, 200), roasSnapshot("low", 100, 120)}

	p := a.Allocate(winner, cohort, 0)
	require.NotNil(t, p)
	assert.InDelta(t, 3000.0, p.CurrentAllocation, 0.001)
	assert.InDelta(t, 3600.0, p.ProposedAllocation, 0.001)
}

func TestAllocateZeroCohortROAS(t *testing.T) {
	a := NewBudgetAllocator(10000)
	// All campaigns spent with no revenue: mean is zero, no proposal either way.
	dead := roasSnapshot("dead", 100, 0)
	cohort := []*MetricSnapshot{dead, roasSnapshot("dead-2", 200, 0)}
	assert.Nil(t, a.Allocate(dead, cohort, 1000))
}

func TestAllocatePure(t *testing.T) {
	a := NewBudgetAllocator(10000)
	winner := roasSnapshot("win", 100, 400)
	cohort := []*MetricSnapshot{winner, roasSnapshot("low", 100, 120)}

	first := a.Allocate(winner, cohort, 2000)
	second := a.Allocate(winner, cohort, 2000)
	require.NotNil(t, first)
	assert.Equal(t, *first, *second)
}
