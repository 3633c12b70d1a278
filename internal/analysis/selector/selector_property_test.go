package selector

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"derivscan/internal/models"
)

// strikeSliceGen generates strike lists on a realistic grid, possibly with
// duplicates and in arbitrary order.
func strikeSliceGen(maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.IntRange(1, 400)).Map(func(ticks []int) []float64 {
		strikes := make([]float64, len(ticks))
		for i, tk := range ticks {
			strikes[i] = float64(tk) * 25.0
		}
		return strikes
	})
}

func refPriceGen() gopter.Gen {
	return gen.Float64Range(10.0, 11000.0)
}

func TestProperty_SelectionWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("at most k_above+k_below+1 distinct strikes are selected", prop.ForAll(
		func(strikes []float64, price float64) bool {
			p := DefaultParams()
			sel, err := Select(strikes, models.ReferencePoint{Symbol: "X", ReferencePrice: price}, p)
			if err != nil {
				return false
			}
			if len(sel.Strikes) > p.Size() {
				return false
			}
			seen := map[float64]bool{}
			for _, s := range sel.Strikes {
				if seen[s.StrikePrice] {
					return false
				}
				seen[s.StrikePrice] = true
			}
			return true
		},
		strikeSliceGen(30),
		refPriceGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_RankStrictlyIncreasingWithDistance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("rank orders strikes by distance, ties to lower strike", prop.ForAll(
		func(strikes []float64, price float64) bool {
			sel, err := Select(strikes, models.ReferencePoint{Symbol: "X", ReferencePrice: price}, DefaultParams())
			if err != nil {
				return false
			}

			byRank := make([]models.SelectedStrike, len(sel.Strikes))
			for _, s := range sel.Strikes {
				if s.Rank < 1 || s.Rank > len(sel.Strikes) {
					return false
				}
				byRank[s.Rank-1] = s
			}
			for i := 1; i < len(byRank); i++ {
				dPrev := math.Abs(byRank[i-1].StrikePrice - price)
				dCur := math.Abs(byRank[i].StrikePrice - price)
				if dCur < dPrev {
					return false
				}
				if dCur == dPrev && byRank[i].StrikePrice < byRank[i-1].StrikePrice {
					return false
				}
			}
			return true
		},
		strikeSliceGen(30),
		refPriceGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_SelectionDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("identical inputs produce identical ordered output", prop.ForAll(
		func(strikes []float64, price float64) bool {
			ref := models.ReferencePoint{Symbol: "X", ReferencePrice: price}
			a, errA := Select(strikes, ref, DefaultParams())
			b, errB := Select(strikes, ref, DefaultParams())
			if errA != nil || errB != nil {
				return errA != nil && errB != nil
			}
			return reflect.DeepEqual(a, b)
		},
		strikeSliceGen(30),
		refPriceGen(),
	))

	properties.Property("output is ordered ascending by strike", prop.ForAll(
		func(strikes []float64, price float64) bool {
			sel, err := Select(strikes, models.ReferencePoint{Symbol: "X", ReferencePrice: price}, DefaultParams())
			if err != nil {
				return false
			}
			for i := 1; i < len(sel.Strikes); i++ {
				if sel.Strikes[i].StrikePrice <= sel.Strikes[i-1].StrikePrice {
					return false
				}
			}
			return true
		},
		strikeSliceGen(30),
		refPriceGen(),
	))

	properties.TestingRun(t)
}
