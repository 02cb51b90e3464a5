package engine

// Device and hour-of-day adjustments are step functions over observed
// conversion rates. The steps are deliberately asymmetric: a poor dimension
// is penalized harder than a good one is rewarded, which keeps spend
// risk-averse.
const (
	deviceGoodRate   = 0.05
	devicePoorRate   = 0.02
	deviceBoostPct   = 15
	devicePenaltyPct = -25

	hourGoodRate   = 0.08
	hourPoorRate   = 0.03
	hourBoostPct   = 20
	hourPenaltyPct = -30
)

// Strategy selection thresholds, evaluated ROAS first.
const (
	strategyROASFloor = 4.0
	strategyCPACeil   = 40.0
	targetROASPull    = 0.9 // conservative pull-back below trailing ROAS
	targetCPAStretch  = 1.1 // slightly more aggressive than trailing CPA
)

// StaticAdjustmentTables carries the configured location, day-of-week and
// audience multiplier tables. These are configuration rather than computed
// values so they can become data-driven without touching the calculator.
type StaticAdjustmentTables struct {
	Location  map[string]float64 `yaml:"location" json:"location"`
	DayOfWeek map[string]float64 `yaml:"day_of_week" json:"day_of_week"`
	Audience  map[string]float64 `yaml:"audience" json:"audience"`
}

// BidCalculator derives per-dimension percentage multipliers from a
// campaign's conversion-rate breakdowns plus the configured static tables.
type BidCalculator struct {
	tables StaticAdjustmentTables
}

// NewBidCalculator creates a calculator with the configured static tables.
func NewBidCalculator(tables StaticAdjustmentTables) *BidCalculator {
	return &BidCalculator{tables: tables}
}

// ComputeAdjustments builds the five adjustment maps for one campaign.
// Device and hour-of-day come from the snapshot's observed rates; location,
// day-of-week and audience are copied from configuration. Each dimension is
// independent.
func (b *BidCalculator) ComputeAdjustments(snapshot *MetricSnapshot) BidAdjustments {
	adj := BidAdjustments{
		Location:  copyTable(b.tables.Location),
		DayOfWeek: copyTable(b.tables.DayOfWeek),
		Audience:  copyTable(b.tables.Audience),
	}

	if rates := snapshot.DeviceConversionRates(); len(rates) > 0 {
		adj.Device = make(map[string]float64, len(rates))
		for device, rate := range rates {
			switch {
			case rate > deviceGoodRate:
				adj.Device[device] = deviceBoostPct
			case rate < devicePoorRate:
				adj.Device[device] = devicePenaltyPct
			default:
				adj.Device[device] = 0
			}
		}
	}

	if len(snapshot.Hourly) > 0 {
		adj.HourOfDay = make(map[int]float64, len(snapshot.Hourly))
		for _, bucket := range snapshot.Hourly {
			// clicks == 0 means the rate is undefined: no adjustment, and
			// no NaN leaking into the map.
			if bucket.Clicks == 0 {
				adj.HourOfDay[bucket.Hour] = 0
				continue
			}
			rate := float64(bucket.Conversions) / float64(bucket.Clicks)
			switch {
			case rate > hourGoodRate:
				adj.HourOfDay[bucket.Hour] = hourBoostPct
			case rate < hourPoorRate:
				adj.HourOfDay[bucket.Hour] = hourPenaltyPct
			default:
				adj.HourOfDay[bucket.Hour] = 0
			}
		}
	}

	return adj
}

// SelectStrategy picks the bidding strategy from trailing performance.
// Order is significant: the ROAS check runs first, then CPA, then the
// maximize-conversions fallback. Exactly one branch applies.
func (b *BidCalculator) SelectStrategy(snapshot *MetricSnapshot) BidStrategy {
	m := snapshot.Metrics
	m.DeriveRates()

	strategy := BidStrategy{
		CampaignID:  snapshot.CampaignID,
		Adjustments: b.ComputeAdjustments(snapshot),
	}

	switch {
	case m.ROAS > strategyROASFloor:
		target := m.ROAS * targetROASPull
		strategy.Type = StrategyTargetROAS
		strategy.Target = &target
	case m.CPA > 0 && m.CPA < strategyCPACeil:
		target := m.CPA * targetCPAStretch
		strategy.Type = StrategyTargetCPA
		strategy.Target = &target
	default:
		strategy.Type = StrategyMaximizeConversions
	}
	return strategy
}

func copyTable(src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
