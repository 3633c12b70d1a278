package drawdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivscan/internal/errors"
	"derivscan/internal/models"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

func series(closes ...float64) models.PriceSeries {
	out := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		out[i] = models.PricePoint{TradeDate: day(i + 1), Close: c, Volume: 100}
	}
	return out
}

func TestAnalyze_LargeContraction(t *testing.T) {
	// 100 -> 80 -> 60 -> 45: three consecutive declines crossing 50%.
	res, err := Analyze(series(100, 80, 60, 45), 50)
	require.NoError(t, err)

	assert.Equal(t, 100.0, res.MaxPrice)
	assert.Equal(t, day(1), res.MaxDate)
	assert.Equal(t, 45.0, res.MinPrice)
	assert.Equal(t, day(4), res.MinDate)
	assert.InDelta(t, 55.0, res.Reduction(), 1e-9)

	// Worst step is 80->60; the later equal-magnitude step does not displace it.
	assert.InDelta(t, 25.0, res.MaxSingleStepDropPct, 1e-9)
	assert.Equal(t, day(3), res.MaxSingleStepDate)

	assert.Equal(t, 3, res.MaxConsecutiveDeclineLen)
	assert.InDelta(t, 70.0, res.MaxConsecutiveDeclinePct, 1e-9)

	assert.True(t, res.CrossesThreshold)
	require.NotNil(t, res.FirstCrossingDate)
	assert.Equal(t, day(4), *res.FirstCrossingDate, "60 is above the 50 floor at d3, 45 crosses at d4")
}

func TestAnalyze_GlobalExtremesNotStartVsEnd(t *testing.T) {
	// Rising series still has a nonzero reduction between its global extremes.
	res, err := Analyze(series(50, 55), 50)
	require.NoError(t, err)

	assert.Equal(t, 55.0, res.MaxPrice)
	assert.Equal(t, day(2), res.MaxDate)
	assert.Equal(t, 50.0, res.MinPrice)
	assert.Equal(t, day(1), res.MinDate)
	assert.InDelta(t, 9.09, res.Reduction(), 0.005)
	assert.False(t, res.CrossesThreshold)
	assert.Nil(t, res.FirstCrossingDate)
}

func TestAnalyze_InsufficientDataSentinel(t *testing.T) {
	res, err := Analyze(series(100), 50)
	require.NoError(t, err)
	assert.True(t, res.Insufficient())
	assert.Equal(t, 1, res.PointShortfall)
	assert.False(t, res.CrossesThreshold)

	res, err = Analyze(nil, 50)
	require.NoError(t, err)
	assert.True(t, res.Insufficient())
	assert.Equal(t, 2, res.PointShortfall)
}

func TestAnalyze_UnorderedSeriesRejected(t *testing.T) {
	s := series(100, 90, 80)
	s[1].TradeDate = day(5) // now d1, d5, d3

	_, err := Analyze(s, 50)
	assert.True(t, errors.Is(err, errors.ErrUnorderedSeries))
}

func TestAnalyze_DuplicateDatesRejected(t *testing.T) {
	s := series(100, 90)
	s[1].TradeDate = s[0].TradeDate

	_, err := Analyze(s, 50)
	assert.True(t, errors.Is(err, errors.ErrUnorderedSeries))
}

func TestAnalyze_InvalidThreshold(t *testing.T) {
	_, err := Analyze(series(100, 90), 0)
	assert.Error(t, err)
	_, err = Analyze(series(100, 90), -10)
	assert.Error(t, err)
	_, err = Analyze(series(100, 90), 101)
	assert.Error(t, err)
}

func TestAnalyze_NoCrossingDateWhenMaxIsLast(t *testing.T) {
	// 100 -> 40 -> 110: the contraction crossed 50% of the final max only
	// before the max itself, so no crossing date exists after it.
	res, err := Analyze(series(100, 40, 110), 50)
	require.NoError(t, err)

	assert.Equal(t, 110.0, res.MaxPrice)
	assert.Equal(t, day(3), res.MaxDate)
	assert.True(t, res.CrossesThreshold)
	assert.Nil(t, res.FirstCrossingDate)
}

func TestAnalyze_CrossingIsInclusive(t *testing.T) {
	// 50 is exactly the 50% floor of 100.
	res, err := Analyze(series(100, 50), 50)
	require.NoError(t, err)
	assert.True(t, res.CrossesThreshold)
	require.NotNil(t, res.FirstCrossingDate)
	assert.Equal(t, day(2), *res.FirstCrossingDate)
}

func TestAnalyze_NoDeclines(t *testing.T) {
	res, err := Analyze(series(100, 100, 105, 120), 50)
	require.NoError(t, err)

	assert.Zero(t, res.MaxSingleStepDropPct)
	assert.True(t, res.MaxSingleStepDate.IsZero())
	assert.Zero(t, res.MaxConsecutiveDeclineLen)
	assert.Zero(t, res.MaxConsecutiveDeclinePct)
}

func TestAnalyze_RunTieBreaksOnSummedMagnitude(t *testing.T) {
	// Two runs of length 2: a shallow one then a steep one.
	res, err := Analyze(series(100, 99, 98, 120, 100, 80), 90)
	require.NoError(t, err)

	assert.Equal(t, 2, res.MaxConsecutiveDeclineLen)
	// Steep run: 120->100 is -16.67%, 100->80 is -20%.
	assert.InDelta(t, 36.67, res.MaxConsecutiveDeclinePct, 0.01)
}

func TestAnalyze_FirstOccurrenceOfRepeatedExtreme(t *testing.T) {
	res, err := Analyze(series(100, 40, 100, 40), 50)
	require.NoError(t, err)

	assert.Equal(t, day(1), res.MaxDate)
	assert.Equal(t, day(2), res.MinDate)
	require.NotNil(t, res.FirstCrossingDate)
	assert.Equal(t, day(2), *res.FirstCrossingDate)
}

func TestAnalyze_AuxiliaryStats(t *testing.T) {
	s := models.PriceSeries{
		{TradeDate: day(1), Close: 10, Volume: 100},
		{TradeDate: day(2), Close: 20, Volume: 300},
	}
	res, err := Analyze(s, 50)
	require.NoError(t, err)

	assert.InDelta(t, 200.0, res.AvgDailyVolume, 1e-9)
	assert.InDelta(t, 5.0, res.PriceStdDev, 1e-9, "population std dev of {10,20}")
}
