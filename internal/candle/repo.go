package candle

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/quantsweep/quantsweep/internal/core"
)

// Repo persists candle history in Postgres, keyed by symbol and
// interval. It is a boundary collaborator: the simulation itself never
// touches it.
type Repo struct {
	db *sqlx.DB
}

// Open connects to Postgres with the given DSN.
func Open(dsn string) (*Repo, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return &Repo{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repo) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the candles table when it does not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	const ddl = `
    CREATE TABLE IF NOT EXISTS candles (
        symbol        TEXT             NOT NULL,
        interval      TEXT             NOT NULL,
        ts            TIMESTAMPTZ      NOT NULL,
        open          DOUBLE PRECISION NOT NULL,
        high          DOUBLE PRECISION NOT NULL,
        low           DOUBLE PRECISION NOT NULL,
        close         DOUBLE PRECISION NOT NULL,
        volume        DOUBLE PRECISION NOT NULL DEFAULT 0,
        open_interest DOUBLE PRECISION NOT NULL DEFAULT 0,
        PRIMARY KEY (symbol, interval, ts)
    )`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

type candleRow struct {
	Ts           time.Time `db:"ts"`
	Open         float64   `db:"open"`
	High         float64   `db:"high"`
	Low          float64   `db:"low"`
	Close        float64   `db:"close"`
	Volume       float64   `db:"volume"`
	OpenInterest float64   `db:"open_interest"`
}

func (row candleRow) candle() core.Candle {
	return core.Candle{
		Time:         row.Ts.UTC(),
		Open:         row.Open,
		High:         row.High,
		Low:          row.Low,
		Close:        row.Close,
		Volume:       row.Volume,
		OpenInterest: row.OpenInterest,
	}
}

// LoadRange fetches the ordered candle series for one instrument between
// from and to inclusive. An empty result is not an error here; callers
// decide whether an empty series fails their job.
func (r *Repo) LoadRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]core.Candle, error) {
	const query = `
    SELECT ts, open, high, low, close, volume, open_interest
    FROM candles
    WHERE symbol = $1 AND interval = $2 AND ts BETWEEN $3 AND $4
    ORDER BY ts ASC`

	var rows []candleRow
	if err := r.db.SelectContext(ctx, &rows, query, symbol, interval, from, to); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}

	candles := make([]core.Candle, len(rows))
	for i, row := range rows {
		candles[i] = row.candle()
	}
	return candles, nil
}

// Save upserts a candle series for one instrument.
func (r *Repo) Save(ctx context.Context, symbol, interval string, candles []core.Candle) error {
	const query = `
    INSERT INTO candles (symbol, interval, ts, open, high, low, close, volume, open_interest)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    ON CONFLICT (symbol, interval, ts) DO UPDATE SET
        open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
        close = EXCLUDED.close, volume = EXCLUDED.volume, open_interest = EXCLUDED.open_interest`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer tx.Rollback()

	for _, c := range candles {
		if _, err := tx.ExecContext(ctx, query,
			symbol, interval, c.Time.UTC(),
			c.Open, c.High, c.Low, c.Close, c.Volume, c.OpenInterest); err != nil {
			return core.WrapError(core.ErrStorageFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}
