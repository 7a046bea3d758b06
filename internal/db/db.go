// Package db provides the in-memory SQLite store behind the "sql"
// aggregation engine. Nothing is written to disk.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// DB wraps a single-connection in-memory SQLite database.
type DB struct {
	*sql.DB
}

// SchoolRecord is one (region, revenue) pair. A NaN revenue is stored as NULL.
type SchoolRecord struct {
	Region  string
	Revenue float64
}

// RegionSummary is one row of the grouped query. AvgRevenue is NaN when every
// revenue in the group was NULL.
type RegionSummary struct {
	Region     string
	Count      int
	AvgRevenue float64
}

// OpenMemory opens a fresh in-memory database and applies all migrations.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// Every pooled connection to ":memory:" would get its own empty database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// InsertRecords stores records in a single transaction.
func (db *DB) InsertRecords(ctx context.Context, records []SchoolRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO school_records (region, total_rev) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		var rev sql.NullFloat64
		if !math.IsNaN(r.Revenue) && !math.IsInf(r.Revenue, 0) {
			rev = sql.NullFloat64{Float64: r.Revenue, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, r.Region, rev); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// RegionSummaries groups stored records by region, ordered by region name.
func (db *DB) RegionSummaries(ctx context.Context) ([]RegionSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT region, COUNT(*), AVG(total_rev)
		FROM school_records
		GROUP BY region
		ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("failed to query region summaries: %w", err)
	}
	defer rows.Close()

	var out []RegionSummary
	for rows.Next() {
		var (
			s   RegionSummary
			avg sql.NullFloat64
		)
		if err := rows.Scan(&s.Region, &s.Count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan region summary: %w", err)
		}
		s.AvgRevenue = math.NaN()
		if avg.Valid {
			s.AvgRevenue = avg.Float64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountRecords returns the number of stored records.
func (db *DB) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM school_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Reset removes all stored records.
func (db *DB) Reset(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM school_records`); err != nil {
		return fmt.Errorf("failed to reset records: %w", err)
	}
	return nil
}
