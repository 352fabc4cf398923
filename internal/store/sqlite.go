package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stocklab/internal/models"
)

// SQLiteStore implements BarStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based bar cache.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, date)
	);

	CREATE INDEX IF NOT EXISTS idx_bars_lookup ON bars(symbol, timeframe, date);

	CREATE TABLE IF NOT EXISTS fetch_log (
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		fetched_at DATETIME NOT NULL,
		PRIMARY KEY (symbol, timeframe)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBars saves normalized bars to the cache.
func (s *SQLiteStore) SaveBars(ctx context.Context, symbol, timeframe string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, timeframe, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, symbol, timeframe, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBars retrieves bars from the cache ordered by date ascending.
// Empty from/to bounds are open-ended.
func (s *SQLiteStore) GetBars(ctx context.Context, symbol, timeframe string, from, to string) ([]models.Bar, error) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timeframe = ?
	`
	args := []interface{}{symbol, timeframe}
	if from != "" {
		query += " AND date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND date <= ?"
		args = append(args, to)
	}
	query += " ORDER BY date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	return bars, nil
}

// LastFetched returns when the symbol/timeframe pair was last fetched from
// the provider. Returns the zero time if never fetched.
func (s *SQLiteStore) LastFetched(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	var fetchedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT fetched_at FROM fetch_log WHERE symbol = ? AND timeframe = ?
	`, symbol, timeframe).Scan(&fetchedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get fetch time: %w", err)
	}
	if !fetchedAt.Valid {
		return time.Time{}, nil
	}
	return fetchedAt.Time, nil
}

// SetLastFetched records a successful provider fetch.
func (s *SQLiteStore) SetLastFetched(ctx context.Context, symbol, timeframe string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fetch_log (symbol, timeframe, fetched_at)
		VALUES (?, ?, ?)
	`, symbol, timeframe, t)
	if err != nil {
		return fmt.Errorf("failed to record fetch time: %w", err)
	}
	return nil
}
