package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stock-sentry/internal/models"
)

// SQLiteStore implements HistoryStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based history store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Daily candles for tracked and queried symbols
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_symbol_ts ON candles(symbol, timestamp);

	-- Journal of fired alerts
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		old_price REAL NOT NULL,
		new_price REAL NOT NULL,
		percent_change REAL NOT NULL,
		direction TEXT NOT NULL,
		target TEXT,
		fired_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCandles upserts a candle series for a symbol.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	symbol = models.NormalizeSymbol(symbol)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timestamp) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, c.Timestamp.UTC(),
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("insert candle: %w", err)
		}
	}
	return tx.Commit()
}

// GetCandles returns candles for symbol in [from, to], oldest first.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`,
		models.NormalizeSymbol(symbol), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// GetCandleFreshness returns the newest stored candle timestamp for symbol,
// or the zero time when none exist.
func (s *SQLiteStore) GetCandleFreshness(ctx context.Context, symbol string) (time.Time, error) {
	var ts sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(timestamp) FROM candles WHERE symbol = ?`,
		models.NormalizeSymbol(symbol)).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("query freshness: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}

// LogAlert appends a fired alert to the journal.
func (s *SQLiteStore) LogAlert(ctx context.Context, event models.AlertEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (symbol, old_price, new_price, percent_change, direction, target, fired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Symbol, event.OldPrice, event.NewPrice, event.PercentChange,
		string(event.Direction), event.Target, event.At.UTC())
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// GetRecentAlerts returns the most recently fired alerts, newest first.
func (s *SQLiteStore) GetRecentAlerts(ctx context.Context, limit int) ([]models.AlertEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, old_price, new_price, percent_change, direction, target, fired_at
		FROM alerts
		ORDER BY fired_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var e models.AlertEvent
		var direction string
		if err := rows.Scan(&e.Symbol, &e.OldPrice, &e.NewPrice, &e.PercentChange,
			&direction, &e.Target, &e.At); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		e.Direction = models.Direction(direction)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
