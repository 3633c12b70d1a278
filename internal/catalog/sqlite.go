package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"derivscan/internal/analysis/tiebreak"
	"derivscan/internal/errors"
	"derivscan/internal/models"
)

// SQLiteCatalog implements Store using SQLite.
type SQLiteCatalog struct {
	db *sql.DB
	// priorityFields break ties when duplicate batches produce rows for
	// the same trade date in a price series.
	priorityFields []string
}

// NewSQLiteCatalog opens (creating if needed) a SQLite-backed catalog.
func NewSQLiteCatalog(dbPath string, priorityFields []string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	cat := &SQLiteCatalog{
		db:             db,
		priorityFields: priorityFields,
	}

	if err := cat.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return cat, nil
}

func (c *SQLiteCatalog) initSchema() error {
	schema := `
	-- Contract rows, one per (symbol, strike, class, trade date, batch).
	-- The same natural key may appear under several batches; readers
	-- resolve those duplicates, the schema keeps them.
	CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		strike REAL NOT NULL,
		class TEXT NOT NULL,
		expiry DATETIME,
		trade_date DATETIME NOT NULL,
		open REAL NOT NULL DEFAULT 0,
		high REAL NOT NULL DEFAULT 0,
		low REAL NOT NULL DEFAULT 0,
		close REAL NOT NULL DEFAULT 0,
		settle REAL NOT NULL DEFAULT 0,
		last_price REAL NOT NULL DEFAULT 0,
		volume INTEGER NOT NULL DEFAULT 0,
		open_interest INTEGER NOT NULL DEFAULT 0,
		batch TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, strike, class, trade_date, batch)
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_key
		ON contracts(symbol, strike, class, trade_date);
	CREATE INDEX IF NOT EXISTS idx_contracts_symbol_date
		ON contracts(symbol, trade_date);
	`

	_, err := c.db.Exec(schema)
	return err
}

// SaveContracts upserts contract rows under a named source batch.
func (c *SQLiteCatalog) SaveContracts(ctx context.Context, batch string, contracts []models.Contract) error {
	if len(contracts) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrDatabaseError, err.Error())
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contracts
			(symbol, strike, class, expiry, trade_date, open, high, low, close, settle, last_price, volume, open_interest, batch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, strike, class, trade_date, batch) DO UPDATE SET
			expiry=excluded.expiry, open=excluded.open, high=excluded.high,
			low=excluded.low, close=excluded.close, settle=excluded.settle,
			last_price=excluded.last_price, volume=excluded.volume,
			open_interest=excluded.open_interest`)
	if err != nil {
		return errors.Wrap(err, "preparing contract insert")
	}
	defer stmt.Close()

	for _, con := range contracts {
		if _, err := stmt.ExecContext(ctx,
			con.Symbol, con.StrikePrice, string(con.Class), con.Expiry, con.TradeDate,
			con.Open, con.High, con.Low, con.Close, con.Settle, con.LastPrice,
			con.Volume, con.OpenInterest, batch,
		); err != nil {
			return errors.Wrapf(err, "inserting contract %s %.2f %s", con.Symbol, con.StrikePrice, con.Class)
		}
	}

	return tx.Commit()
}

// GetStrikes returns the distinct strikes for symbol at or before asOf.
func (c *SQLiteCatalog) GetStrikes(ctx context.Context, symbol string, asOf time.Time) ([]float64, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT strike FROM contracts
		WHERE symbol = ? AND trade_date <= ?
		ORDER BY strike`, symbol, asOf)
	if err != nil {
		return nil, errors.Wrapf(err, "querying strikes for %s", symbol)
	}
	defer rows.Close()

	var strikes []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		strikes = append(strikes, s)
	}
	return strikes, rows.Err()
}

// GetContracts returns the candidate rows at the latest trade date at or
// before asOf for one (symbol, strike, class).
func (c *SQLiteCatalog) GetContracts(ctx context.Context, symbol string, strike float64, class models.OptionClass, asOf time.Time) ([]models.Contract, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT symbol, strike, class, expiry, trade_date, open, high, low, close, settle, last_price, volume, open_interest
		FROM contracts
		WHERE symbol = ? AND strike = ? AND class = ?
		  AND trade_date = (
			SELECT MAX(trade_date) FROM contracts
			WHERE symbol = ? AND strike = ? AND class = ? AND trade_date <= ?
		  )
		ORDER BY id`,
		symbol, strike, string(class), symbol, strike, string(class), asOf)
	if err != nil {
		return nil, errors.Wrapf(err, "querying contracts for %s %.2f %s", symbol, strike, class)
	}
	defer rows.Close()

	return scanContracts(rows)
}

// GetPriceSeries returns the ascending close-price history for one contract
// key from the given date. Duplicate batch rows for one date collapse to the
// row with the highest traded volume, remaining ties by completeness score.
func (c *SQLiteCatalog) GetPriceSeries(ctx context.Context, symbol string, strike float64, class models.OptionClass, from time.Time) (models.PriceSeries, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT symbol, strike, class, expiry, trade_date, open, high, low, close, settle, last_price, volume, open_interest
		FROM contracts
		WHERE symbol = ? AND strike = ? AND class = ? AND trade_date >= ?
		ORDER BY trade_date, id`,
		symbol, strike, string(class), from)
	if err != nil {
		return nil, errors.Wrapf(err, "querying price series for %s %.2f %s", symbol, strike, class)
	}
	defer rows.Close()

	contracts, err := scanContracts(rows)
	if err != nil {
		return nil, err
	}

	var series models.PriceSeries
	for i := 0; i < len(contracts); {
		j := i
		for j < len(contracts) && contracts[j].TradeDate.Equal(contracts[i].TradeDate) {
			j++
		}
		best := c.resolveDay(contracts[i:j])
		series = append(series, models.PricePoint{
			TradeDate: best.TradeDate,
			Close:     best.Close,
			Volume:    best.Volume,
		})
		i = j
	}
	return series, nil
}

// resolveDay picks one row among same-date duplicates: highest volume first,
// then completeness score, then input order.
func (c *SQLiteCatalog) resolveDay(day []models.Contract) models.Contract {
	if len(day) == 1 {
		return day[0]
	}
	maxVol := day[0].Volume
	for _, con := range day[1:] {
		if con.Volume > maxVol {
			maxVol = con.Volume
		}
	}
	var tied []models.Contract
	for _, con := range day {
		if con.Volume == maxVol {
			tied = append(tied, con)
		}
	}
	best, _ := tiebreak.Resolve(tied, c.priorityFields)
	return best
}

// Symbols lists the distinct symbols present in the catalog.
func (c *SQLiteCatalog) Symbols(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM contracts ORDER BY symbol`)
	if err != nil {
		return nil, errors.Wrap(err, "querying symbols")
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// ContractCount returns the total contract rows stored.
func (c *SQLiteCatalog) ContractCount(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func scanContracts(rows *sql.Rows) ([]models.Contract, error) {
	var out []models.Contract
	for rows.Next() {
		var con models.Contract
		var class string
		var expiry sql.NullTime
		if err := rows.Scan(
			&con.Symbol, &con.StrikePrice, &class, &expiry, &con.TradeDate,
			&con.Open, &con.High, &con.Low, &con.Close, &con.Settle, &con.LastPrice,
			&con.Volume, &con.OpenInterest,
		); err != nil {
			return nil, err
		}
		con.Class = models.OptionClass(class)
		if expiry.Valid {
			con.Expiry = expiry.Time
		}
		out = append(out, con)
	}
	return out, rows.Err()
}
