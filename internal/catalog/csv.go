package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"derivscan/internal/errors"
	"derivscan/internal/models"
)

// contractRow mirrors one row of a derivatives bhavcopy-style CSV file.
type contractRow struct {
	Symbol       string  `csv:"SYMBOL"`
	Expiry       string  `csv:"EXPIRY_DT"`
	Strike       float64 `csv:"STRIKE_PR"`
	OptionType   string  `csv:"OPTION_TYP"`
	Open         float64 `csv:"OPEN"`
	High         float64 `csv:"HIGH"`
	Low          float64 `csv:"LOW"`
	Close        float64 `csv:"CLOSE"`
	Settle       float64 `csv:"SETTLE_PR"`
	Last         float64 `csv:"LAST"`
	Volume       int64   `csv:"CONTRACTS"`
	OpenInterest int64   `csv:"OPEN_INT"`
	TradeDate    string  `csv:"TIMESTAMP"`
}

// csvDateLayouts are the date spellings seen across bulk file vintages.
var csvDateLayouts = []string{"02-Jan-2006", "2006-01-02", "02/01/2006"}

// ImportResult summarizes one bulk file load.
type ImportResult struct {
	File    string
	Loaded  int
	Skipped int
}

// ImportCSV loads a bhavcopy-style CSV file into the catalog under a batch
// named after the file. Malformed rows are skipped and counted, not fatal;
// an unreadable file or unparseable header is.
func ImportCSV(ctx context.Context, w Writer, logger zerolog.Logger, path string) (ImportResult, error) {
	res := ImportResult{File: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		return res, errors.NewIngestError(res.File, 0, "opening file", err)
	}
	defer f.Close()

	var rows []*contractRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return res, errors.NewIngestError(res.File, 0, "parsing CSV", err)
	}

	contracts := make([]models.Contract, 0, len(rows))
	for i, row := range rows {
		con, err := row.toContract()
		if err != nil {
			res.Skipped++
			logger.Debug().
				Str("file", res.File).
				Int("row", i+1).
				Err(err).
				Msg("Skipping malformed row")
			continue
		}
		contracts = append(contracts, con)
	}

	if err := w.SaveContracts(ctx, res.File, contracts); err != nil {
		return res, errors.NewIngestError(res.File, 0, "storing contracts", err)
	}

	res.Loaded = len(contracts)
	return res, nil
}

func (r *contractRow) toContract() (models.Contract, error) {
	symbol := strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return models.Contract{}, errors.NewValidationError("SYMBOL", r.Symbol, "empty symbol")
	}
	if r.Strike <= 0 {
		return models.Contract{}, errors.NewValidationError("STRIKE_PR", r.Strike, "non-positive strike")
	}

	class, ok := models.ParseOptionClass(strings.TrimSpace(r.OptionType))
	if !ok {
		return models.Contract{}, errors.NewValidationError("OPTION_TYP", r.OptionType, "unknown option class")
	}

	tradeDate, err := parseCSVDate(r.TradeDate)
	if err != nil {
		return models.Contract{}, errors.NewValidationError("TIMESTAMP", r.TradeDate, "unparseable trade date")
	}

	// Expiry may be blank in index files; that is tolerated.
	var expiry time.Time
	if strings.TrimSpace(r.Expiry) != "" {
		expiry, err = parseCSVDate(r.Expiry)
		if err != nil {
			return models.Contract{}, errors.NewValidationError("EXPIRY_DT", r.Expiry, "unparseable expiry")
		}
	}

	return models.Contract{
		Symbol:       symbol,
		StrikePrice:  r.Strike,
		Class:        class,
		Expiry:       expiry,
		TradeDate:    tradeDate,
		Open:         r.Open,
		High:         r.High,
		Low:          r.Low,
		Close:        r.Close,
		Settle:       r.Settle,
		LastPrice:    r.Last,
		Volume:       r.Volume,
		OpenInterest: r.OpenInterest,
	}, nil
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
