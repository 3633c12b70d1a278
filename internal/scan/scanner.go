// Package scan orchestrates the strike selection and drawdown analysis flow
// across reference points.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"derivscan/internal/analysis/drawdown"
	"derivscan/internal/analysis/selector"
	"derivscan/internal/analysis/severity"
	"derivscan/internal/logging"
	"derivscan/internal/models"
)

// Catalog is the catalog surface the scanner reads.
type Catalog interface {
	selector.Catalog
	GetPriceSeries(ctx context.Context, symbol string, strike float64, class models.OptionClass, from time.Time) (models.PriceSeries, error)
}

// Config holds scan parameters.
type Config struct {
	Params       selector.Params
	ThresholdPct float64
	// Workers bounds the fan-out across reference points.
	Workers int
	// Lookback is how far before the as-of date the price series starts.
	Lookback time.Duration
}

// DefaultLookback covers roughly one contract year of history.
const DefaultLookback = 365 * 24 * time.Hour

// Scanner runs the selection/analysis pipeline against a catalog. The
// underlying computations are pure, so one Scanner may be used from many
// goroutines.
type Scanner struct {
	cat    Catalog
	cfg    Config
	logger zerolog.Logger
}

// NewScanner creates a scanner over the given catalog.
func NewScanner(cat Catalog, logger zerolog.Logger, cfg Config) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.ThresholdPct <= 0 {
		cfg.ThresholdPct = drawdown.DefaultThresholdPct
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	return &Scanner{cat: cat, cfg: cfg, logger: logger}
}

// ScanReference runs the full flow for one reference point: neighborhood
// selection, per-contract price history, drawdown analysis, classification.
// Expected shortfalls (no strikes, missing class, short series) surface as
// flagged records, not errors.
func (s *Scanner) ScanReference(ctx context.Context, ref models.ReferencePoint) ([]models.ScanRecord, error) {
	logger := logging.WithSymbol(s.logger, ref.Symbol)

	sel, err := selector.SelectContracts(ctx, s.cat, logger, ref, s.cfg.Params)
	if err != nil {
		return nil, err
	}
	if sel.StrikeShortfall > 0 {
		logger.Warn().
			Int("shortfall", sel.StrikeShortfall).
			Msg("Fewer strikes available than requested neighborhood")
	}

	from := ref.AsOfDate.Add(-s.cfg.Lookback)
	var records []models.ScanRecord
	for _, st := range sel.Strikes {
		for _, con := range st.Contracts {
			series, err := s.cat.GetPriceSeries(ctx, ref.Symbol, st.StrikePrice, con.Class, from)
			if err != nil {
				return nil, err
			}

			result, err := drawdown.Analyze(series, s.cfg.ThresholdPct)
			if err != nil {
				return nil, err
			}
			result.Severity, result.RiskLevel = severity.Classify(result)

			logging.LogScan(logger, ref.Symbol, st.StrikePrice, string(con.Class),
				result.Reduction(), result.CrossesThreshold)

			records = append(records, models.ScanRecord{
				Symbol:      ref.Symbol,
				StrikePrice: st.StrikePrice,
				Class:       con.Class,
				Position:    st.Position,
				Rank:        st.Rank,
				SeriesLen:   len(series),
				Result:      result,
			})
		}
	}
	return records, nil
}

// ScanAll fans ScanReference out across reference points with a bounded
// worker pool. Record order follows the input reference order regardless of
// completion order.
func (s *Scanner) ScanAll(ctx context.Context, refs []models.ReferencePoint) ([]models.ScanRecord, error) {
	results := make([][]models.ScanRecord, len(refs))
	errs := make([]error, len(refs))

	work := make(chan int, len(refs))
	var wg sync.WaitGroup

	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				select {
				case <-ctx.Done():
					errs[i] = ctx.Err()
				default:
					results[i], errs[i] = s.ScanReference(ctx, refs[i])
				}
			}
		}()
	}

	for i := range refs {
		work <- i
	}
	close(work)
	wg.Wait()

	var records []models.ScanRecord
	for i := range refs {
		if errs[i] != nil {
			return nil, errs[i]
		}
		records = append(records, results[i]...)
	}
	return records, nil
}
