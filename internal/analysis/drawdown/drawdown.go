// Package drawdown detects and characterizes large price contractions in a
// contract's price history.
package drawdown

import (
	"math"
	"time"

	"derivscan/internal/errors"
	"derivscan/internal/models"
)

// DefaultThresholdPct is the contraction threshold used when callers have no
// configured override.
const DefaultThresholdPct = 50.0

// Analyze scans an ascending-by-date price series and reports its global
// extremes, total contraction, worst single-step drop, longest consecutive
// decline run, and the first date the contraction crossed thresholdPct.
//
// A series with fewer than two points yields a sentinel result with a nil
// reduction and the point shortfall recorded; that is not an error. Dates
// out of order or duplicated are genuinely invalid input and are rejected.
func Analyze(series models.PriceSeries, thresholdPct float64) (models.DrawdownResult, error) {
	if thresholdPct <= 0 || thresholdPct > 100 {
		return models.DrawdownResult{}, errors.NewValidationError("threshold_pct", thresholdPct, "must be in (0, 100]")
	}
	if !series.IsSorted() {
		return models.DrawdownResult{}, errors.ErrUnorderedSeries
	}

	var res models.DrawdownResult
	res.AvgDailyVolume = avgVolume(series)
	res.PriceStdDev = stdDev(series.Closes())

	if len(series) < 2 {
		res.PointShortfall = 2 - len(series)
		return res, nil
	}

	// Global extremes over the whole series, regardless of temporal order.
	// First occurrence wins when a price repeats.
	maxIdx, minIdx := 0, 0
	for i, p := range series {
		if p.Close > series[maxIdx].Close {
			maxIdx = i
		}
		if p.Close < series[minIdx].Close {
			minIdx = i
		}
	}
	res.MaxPrice = series[maxIdx].Close
	res.MaxDate = series[maxIdx].TradeDate
	res.MinPrice = series[minIdx].Close
	res.MinDate = series[minIdx].TradeDate

	reduction := 0.0
	if res.MaxPrice > 0 {
		reduction = (res.MaxPrice - res.MinPrice) / res.MaxPrice * 100
	}
	res.TotalReductionPct = &reduction

	analyzeSteps(series, &res)

	res.CrossesThreshold = reduction >= thresholdPct
	if res.CrossesThreshold {
		res.FirstCrossingDate = firstCrossing(series, maxIdx, thresholdPct)
	}

	return res, nil
}

// analyzeSteps computes the per-step change fields: the worst single-step
// drop and the longest consecutive decline run. Run ties go to the run with
// the greater summed magnitude, not compounded.
func analyzeSteps(series models.PriceSeries, res *models.DrawdownResult) {
	var (
		runLen, bestLen int
		runSum, bestSum float64
	)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Close
		if prev <= 0 {
			runLen, runSum = 0, 0
			continue
		}
		stepPct := (series[i].Close - prev) / prev * 100

		if stepPct < 0 {
			if drop := -stepPct; drop > res.MaxSingleStepDropPct {
				res.MaxSingleStepDropPct = drop
				res.MaxSingleStepDate = series[i].TradeDate
			}
			runLen++
			runSum += -stepPct
			if runLen > bestLen || (runLen == bestLen && runSum > bestSum) {
				bestLen, bestSum = runLen, runSum
			}
		} else {
			runLen, runSum = 0, 0
		}
	}
	res.MaxConsecutiveDeclineLen = bestLen
	res.MaxConsecutiveDeclinePct = bestSum
}

// firstCrossing finds the earliest date strictly after the global maximum
// where price fell to or below max*(1-threshold/100). When the maximum sits
// on the series' last date there is nothing after it to scan.
func firstCrossing(series models.PriceSeries, maxIdx int, thresholdPct float64) *time.Time {
	floor := series[maxIdx].Close * (1 - thresholdPct/100)
	for i := maxIdx + 1; i < len(series); i++ {
		if series[i].Close <= floor {
			d := series[i].TradeDate
			return &d
		}
	}
	return nil
}

func avgVolume(series models.PriceSeries) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum int64
	for _, p := range series {
		sum += p.Volume
	}
	return float64(sum) / float64(len(series))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
