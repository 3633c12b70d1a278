// Package selector picks a bounded, deterministic neighborhood of option
// strikes around a reference price.
package selector

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"derivscan/internal/analysis/tiebreak"
	"derivscan/internal/errors"
	"derivscan/internal/logging"
	"derivscan/internal/models"
)

// Params holds strike selection parameters.
type Params struct {
	KAbove         int
	KBelow         int
	PriorityFields []string
}

// DefaultParams returns the standard neighborhood parameters: three strikes
// either side with price-presence tie-breaking.
func DefaultParams() Params {
	return Params{
		KAbove:         3,
		KBelow:         3,
		PriorityFields: []string{"close", "open", "high", "low", "last"},
	}
}

// Size returns the target number of distinct strikes.
func (p Params) Size() int {
	return p.KAbove + p.KBelow + 1
}

// Catalog is the subset of the instrument catalog the selector reads.
type Catalog interface {
	GetStrikes(ctx context.Context, symbol string, asOf time.Time) ([]float64, error)
	// GetContracts returns the candidate rows at the latest trade date at or
	// before asOf. More than one row means duplicate source batches tied on
	// that date.
	GetContracts(ctx context.Context, symbol string, strike float64, class models.OptionClass, asOf time.Time) ([]models.Contract, error)
}

// Select computes the strike neighborhood for a reference point without
// fetching contracts. The result is ordered ascending by strike price, each
// strike tagged with its position and a rank strictly increasing with
// distance from the reference (ties to the lower strike).
//
// Identical inputs always produce identical output. A short strike list is
// absorbed: all available strikes are returned and the shortfall recorded.
func Select(strikes []float64, ref models.ReferencePoint, p Params) (models.Selection, error) {
	if ref.ReferencePrice <= 0 {
		return models.Selection{}, errors.NewValidationError("reference_price", ref.ReferencePrice, errors.ErrInvalidReference.Error())
	}

	sel := models.Selection{Reference: ref}
	k := p.Size()

	uniq := dedupeSorted(strikes)
	if len(uniq) == 0 {
		sel.StrikeShortfall = k
		return sel, nil
	}

	// Partition around the reference. below is ordered nearest-first.
	var below, above []float64
	exact := math.NaN()
	for _, s := range uniq {
		switch {
		case s < ref.ReferencePrice:
			below = append(below, s)
		case s > ref.ReferencePrice:
			above = append(above, s)
		default:
			exact = s
		}
	}
	reverse(below)

	picked := make(map[float64]bool)
	pick := func(s float64) {
		picked[s] = true
	}

	for i := 0; i < p.KBelow && i < len(below); i++ {
		pick(below[i])
	}
	for i := 0; i < p.KAbove && i < len(above); i++ {
		pick(above[i])
	}
	// An exact match never evicts an above/below pick; it occupies the
	// remaining neighborhood slot.
	if !math.IsNaN(exact) {
		pick(exact)
	}

	if nearest, ok := nearestStrike(uniq, ref.ReferencePrice); ok && !picked[nearest] && len(picked) < k {
		pick(nearest)
	}

	// Backfill toward the target size from the unpicked remainder, taking
	// the next strike out from each side in turn, upper side first.
	ai, bi := 0, 0
	for len(picked) < k && (ai < len(above) || bi < len(below)) {
		for ai < len(above) && picked[above[ai]] {
			ai++
		}
		if ai < len(above) {
			pick(above[ai])
			ai++
		}
		if len(picked) >= k {
			break
		}
		for bi < len(below) && picked[below[bi]] {
			bi++
		}
		if bi < len(below) {
			pick(below[bi])
			bi++
		}
	}

	sel.Strikes = rankAndOrder(picked, ref.ReferencePrice)
	if len(sel.Strikes) < k {
		sel.StrikeShortfall = k - len(sel.Strikes)
	}
	return sel, nil
}

// SelectContracts computes the neighborhood for ref from the catalog and
// attaches up to one contract per option class to each selected strike.
// A missing option class is logged and reflected in fewer rows, never an
// error; duplicate rows tied on the latest trade date are resolved by
// completeness score.
func SelectContracts(ctx context.Context, cat Catalog, logger zerolog.Logger, ref models.ReferencePoint, p Params) (models.Selection, error) {
	strikes, err := cat.GetStrikes(ctx, ref.Symbol, ref.AsOfDate)
	if err != nil {
		return models.Selection{}, errors.Wrapf(err, "fetching strikes for %s", ref.Symbol)
	}

	sel, err := Select(strikes, ref, p)
	if err != nil {
		return models.Selection{}, err
	}

	for i := range sel.Strikes {
		st := &sel.Strikes[i]
		for _, class := range []models.OptionClass{models.Call, models.Put} {
			candidates, err := cat.GetContracts(ctx, ref.Symbol, st.StrikePrice, class, ref.AsOfDate)
			if err != nil {
				return models.Selection{}, errors.Wrapf(err, "fetching %s %s @ %.2f", ref.Symbol, class, st.StrikePrice)
			}
			c, ok := tiebreak.Resolve(candidates, p.PriorityFields)
			if !ok {
				logging.LogPartialAvailability(logger, ref.Symbol, st.StrikePrice, string(class))
				continue
			}
			st.Contracts = append(st.Contracts, c)
		}
	}
	return sel, nil
}

// dedupeSorted returns the distinct strikes in ascending order. Selection
// never depends on input iteration order.
func dedupeSorted(strikes []float64) []float64 {
	out := make([]float64, 0, len(strikes))
	out = append(out, strikes...)
	sort.Float64s(out)
	n := 0
	for i, s := range out {
		if i == 0 || s != out[i-1] {
			out[n] = s
			n++
		}
	}
	return out[:n]
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// nearestStrike returns the strike closest to price, ties to the lower one.
func nearestStrike(sorted []float64, price float64) (float64, bool) {
	if len(sorted) == 0 {
		return 0, false
	}
	best := sorted[0]
	bestDist := math.Abs(sorted[0] - price)
	for _, s := range sorted[1:] {
		d := math.Abs(s - price)
		if d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, true
}

// rankAndOrder assigns distance ranks and returns strikes ascending by price.
func rankAndOrder(picked map[float64]bool, ref float64) []models.SelectedStrike {
	strikes := make([]float64, 0, len(picked))
	for s := range picked {
		strikes = append(strikes, s)
	}
	// Rank by distance, ties to the lower strike.
	sort.Slice(strikes, func(i, j int) bool {
		di, dj := math.Abs(strikes[i]-ref), math.Abs(strikes[j]-ref)
		if di != dj {
			return di < dj
		}
		return strikes[i] < strikes[j]
	})

	ranks := make(map[float64]int, len(strikes))
	for i, s := range strikes {
		ranks[s] = i + 1
	}

	sort.Float64s(strikes)
	out := make([]models.SelectedStrike, 0, len(strikes))
	for _, s := range strikes {
		pos := models.PositionExact
		if s < ref {
			pos = models.PositionBelow
		} else if s > ref {
			pos = models.PositionAbove
		}
		out = append(out, models.SelectedStrike{
			StrikePrice: s,
			Position:    pos,
			Rank:        ranks[s],
		})
	}
	return out
}
