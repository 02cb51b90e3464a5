package engine

import (
	"fmt"
)

// Budget allocator thresholds. Performance within the dead zone
// [deadZoneLow*avg, deadZoneHigh*avg] produces no proposal, which keeps the
// allocator from oscillating on noise.
const (
	deadZoneHigh = 1.2
	deadZoneLow  = 0.8
	budgetStep   = 0.20 // relative step per reallocation
)

// BudgetAllocator proposes bounded reallocations of a shared monthly budget.
// Pure: identical inputs always produce identical output, and it performs no
// I/O.
type BudgetAllocator struct {
	totalBudget float64
}

// NewBudgetAllocator creates an allocator for a fixed shared budget pool.
func NewBudgetAllocator(totalBudget float64) *BudgetAllocator {
	return &BudgetAllocator{totalBudget: totalBudget}
}

// Allocate compares one campaign's ROAS against the cohort mean and proposes
// a ±20% change to its allocation, or nil inside the dead zone.
//
// current is the campaign's present allocation; pass 0 when unknown and the
// allocator assumes an equal share of the total budget across the cohort.
// The proposal is a relative delta only; capping the cumulative allocation
// at the total budget remains the caller's invariant.
func (a *BudgetAllocator) Allocate(campaign *MetricSnapshot, cohort []*MetricSnapshot, current float64) *ReallocationProposal {
	if len(cohort) == 0 {
		return nil
	}

	var sum float64
	for _, c := range cohort {
		m := c.Metrics
		m.DeriveRates()
		sum += m.ROAS
	}
	avg := sum / float64(len(cohort))

	m := campaign.Metrics
	m.DeriveRates()
	roas := m.ROAS

	if current == 0 {
		current = a.totalBudget / float64(len(cohort))
	}

	switch {
	case avg > 0 && roas > avg*deadZoneHigh:
		return &ReallocationProposal{
			CampaignID:         campaign.CampaignID,
			Direction:          "increase",
			ChangePct:          budgetStep * 100,
			CurrentAllocation:  current,
			ProposedAllocation: current * (1 + budgetStep),
			CampaignROAS:       roas,
			CohortROAS:         avg,
			Reason:             fmt.Sprintf("ROAS %.2f exceeds %.0f%% of cohort average %.2f", roas, deadZoneHigh*100, avg),
		}
	case avg > 0 && roas < avg*deadZoneLow:
		return &ReallocationProposal{
			CampaignID:         campaign.CampaignID,
			Direction:          "decrease",
			ChangePct:          -budgetStep * 100,
			CurrentAllocation:  current,
			ProposedAllocation: current * (1 - budgetStep),
			CampaignROAS:       roas,
			CohortROAS:         avg,
			Reason:             fmt.Sprintf("ROAS %.2f below %.0f%% of cohort average %.2f", roas, deadZoneLow*100, avg),
		}
	}
	return nil
}
