// Package repository provides database access for the Wayfind application.
//
// Queries are written against the locations schema managed by the goose
// migrations in internal/migrations. Localized reads select the en or de
// column set depending on the requested language.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DukeRupert/wayfind/internal/domain"
	"github.com/DukeRupert/wayfind/internal/i18n"
)

// DBTX is the subset of *sql.DB / *sql.Tx the queries need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the prepared query set.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// The two statements differ only in which localized columns they read; the
// split mirrors the per-language storage rather than interpolating column
// names at runtime.
const (
	getLocationEN = `
SELECT key, kind, name_en, type_common_name_en, lat, lon, calendar_url, last_calendar_scrape_at
FROM locations
WHERE key = $1`

	getLocationDE = `
SELECT key, kind, name_de, type_common_name_de, lat, lon, calendar_url, last_calendar_scrape_at
FROM locations
WHERE key = $1`
)

// GetLocation fetches a single location by key with names localized for lang.
// Returns sql.ErrNoRows when the key does not exist.
func (q *Queries) GetLocation(ctx context.Context, key string, lang i18n.Lang) (domain.Location, error) {
	query := getLocationEN
	if lang == i18n.LangDE {
		query = getLocationDE
	}

	var loc domain.Location
	err := q.db.QueryRowContext(ctx, query, key).Scan(
		&loc.Key,
		&loc.Kind,
		&loc.Name,
		&loc.TypeCommonName,
		&loc.Lat,
		&loc.Lon,
		&loc.CalendarURL,
		&loc.LastCalendarScrape,
	)
	if err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}

// ResolveAlias returns the canonical key a legacy alias points to.
// Returns sql.ErrNoRows when the alias is unknown.
func (q *Queries) ResolveAlias(ctx context.Context, alias string) (string, error) {
	var key string
	err := q.db.QueryRowContext(ctx,
		`SELECT key FROM location_aliases WHERE alias = $1`, alias,
	).Scan(&key)
	if err != nil {
		return "", err
	}
	return key, nil
}

const (
	searchLocationsEN = `
SELECT key, kind, name_en, type_common_name_en, lat, lon, calendar_url, last_calendar_scrape_at
FROM locations
WHERE lower(name_en) LIKE lower($1)
ORDER BY name_en
LIMIT $2`

	searchLocationsDE = `
SELECT key, kind, name_de, type_common_name_de, lat, lon, calendar_url, last_calendar_scrape_at
FROM locations
WHERE lower(name_de) LIKE lower($1)
ORDER BY name_de
LIMIT $2`
)

// SearchLocations finds locations whose localized name contains the query
// string, ordered by name.
func (q *Queries) SearchLocations(ctx context.Context, query string, lang i18n.Lang, limit int) ([]domain.Location, error) {
	stmt := searchLocationsEN
	if lang == i18n.LangDE {
		stmt = searchLocationsDE
	}

	rows, err := q.db.QueryContext(ctx, stmt, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(
			&loc.Key,
			&loc.Kind,
			&loc.Name,
			&loc.TypeCommonName,
			&loc.Lat,
			&loc.Lon,
			&loc.CalendarURL,
			&loc.LastCalendarScrape,
		); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// CountStaleCalendars counts locations with a calendar whose last scrape is
// older than the threshold (or that were never scraped).
func (q *Queries) CountStaleCalendars(ctx context.Context, olderThan time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
SELECT count(*)
FROM locations
WHERE calendar_url IS NOT NULL
  AND (last_calendar_scrape_at IS NULL OR last_calendar_scrape_at < $1)`,
		olderThan,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stale calendars: %w", err)
	}
	return count, nil
}
