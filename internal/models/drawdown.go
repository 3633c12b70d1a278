package models

import "time"

// Severity is the ordinal severity label for a price contraction.
type Severity string

const (
	SeverityMinimal  Severity = "MINIMAL"
	SeverityLow      Severity = "LOW"
	SeverityModerate Severity = "MODERATE"
	SeverityHigh     Severity = "HIGH"
	SeveritySevere   Severity = "SEVERE"
	SeverityExtreme  Severity = "EXTREME"
)

// RiskLevel is the ordinal risk label derived from contraction shape.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "MINIMAL"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// DrawdownResult characterizes the largest contraction in a price series.
// Extremes are global over the whole series, not peak-then-trough.
type DrawdownResult struct {
	MaxPrice float64
	MaxDate  time.Time
	MinPrice float64
	MinDate  time.Time

	// TotalReductionPct is (max-min)/max*100; nil when the series has
	// fewer than two points.
	TotalReductionPct *float64

	MaxSingleStepDropPct float64
	MaxSingleStepDate    time.Time

	MaxConsecutiveDeclineLen int
	MaxConsecutiveDeclinePct float64

	CrossesThreshold  bool
	FirstCrossingDate *time.Time

	AvgDailyVolume float64
	PriceStdDev    float64

	// PointShortfall is how many points short of the two-point minimum
	// the series was; zero for analyzable input.
	PointShortfall int

	Severity  Severity
	RiskLevel RiskLevel
}

// Insufficient reports whether the result is the sentinel for a series too
// short to analyze.
func (r DrawdownResult) Insufficient() bool {
	return r.TotalReductionPct == nil
}

// Reduction returns the total reduction percentage, or 0 for the sentinel.
func (r DrawdownResult) Reduction() float64 {
	if r.TotalReductionPct == nil {
		return 0
	}
	return *r.TotalReductionPct
}

// ScanRecord is one plain result row handed to reporting sinks: a selected
// contract joined with its drawdown analysis.
type ScanRecord struct {
	Symbol      string
	StrikePrice float64
	Class       OptionClass
	Position    StrikePosition
	Rank        int
	SeriesLen   int
	Result      DrawdownResult
}
