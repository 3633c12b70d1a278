// Package catalog provides read access to the instrument catalog and the
// ETL ingest side that fills it.
package catalog

import (
	"context"
	"time"

	"derivscan/internal/models"
)

// Accessor defines read access to the instrument catalog.
type Accessor interface {
	// GetStrikes returns the distinct strikes available for symbol at or
	// before asOf, ascending.
	GetStrikes(ctx context.Context, symbol string, asOf time.Time) ([]float64, error)

	// GetContracts returns the candidate rows for one (symbol, strike,
	// class) at the latest trade date at or before asOf. Empty when the
	// contract is absent; multiple rows when source batches collide on
	// that date.
	GetContracts(ctx context.Context, symbol string, strike float64, class models.OptionClass, asOf time.Time) ([]models.Contract, error)

	// GetPriceSeries returns the ascending close-price history for one
	// (symbol, strike, class) from the given date. May be empty.
	GetPriceSeries(ctx context.Context, symbol string, strike float64, class models.OptionClass, from time.Time) (models.PriceSeries, error)
}

// Writer defines the ingest side of the catalog.
type Writer interface {
	// SaveContracts upserts contract rows under a named source batch.
	SaveContracts(ctx context.Context, batch string, contracts []models.Contract) error
}

// Store combines read and write access with lifecycle management.
type Store interface {
	Accessor
	Writer

	Symbols(ctx context.Context) ([]string, error)
	ContractCount(ctx context.Context) (int64, error)
	Close() error
}
