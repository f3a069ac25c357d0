// Package service contains the business logic of the Wayfind application.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/wayfind/internal/domain"
	"github.com/DukeRupert/wayfind/internal/i18n"
)

// LocationRepository is the data access interface the location service
// needs. *repository.Queries satisfies it; tests supply fakes.
type LocationRepository interface {
	GetLocation(ctx context.Context, key string, lang i18n.Lang) (domain.Location, error)
	ResolveAlias(ctx context.Context, alias string) (string, error)
	SearchLocations(ctx context.Context, query string, lang i18n.Lang, limit int) ([]domain.Location, error)
}

// LocationService resolves location keys (including legacy aliases) to
// localized location records.
type LocationService struct {
	repo   LocationRepository
	logger *slog.Logger
}

// NewLocationService creates a LocationService.
func NewLocationService(repo LocationRepository, logger *slog.Logger) *LocationService {
	return &LocationService{
		repo:   repo,
		logger: logger,
	}
}

// maxSearchResults caps search result pages; the UI never shows more.
const maxSearchResults = 30

// Resolve looks up a location by key. When the key is a legacy alias, the
// location is returned together with its canonical key so callers can issue
// a redirect; for canonical keys the returned key equals the input.
func (s *LocationService) Resolve(ctx context.Context, key string, lang i18n.Lang) (domain.Location, string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Location{}, "", domain.Invalid("location.resolve", "location key must not be empty")
	}

	loc, err := s.repo.GetLocation(ctx, key, lang)
	if err == nil {
		return loc, key, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, "", domain.Internal(err, "location.resolve", "location lookup failed")
	}

	// Unknown key: it may be a legacy alias for a renamed location.
	canonical, err := s.repo.ResolveAlias(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Location{}, "", domain.NotFound("location.resolve", "location", key)
		}
		return domain.Location{}, "", domain.Internal(err, "location.resolve", "alias lookup failed")
	}

	loc, err = s.repo.GetLocation(ctx, canonical, lang)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Alias points at a removed location.
			s.logger.Warn("alias points to missing location", "alias", key, "key", canonical)
			return domain.Location{}, "", domain.NotFound("location.resolve", "location", key)
		}
		return domain.Location{}, "", domain.Internal(err, "location.resolve", "location lookup failed")
	}
	return loc, canonical, nil
}

// Search returns locations whose localized name contains the query.
func (s *LocationService) Search(ctx context.Context, query string, lang i18n.Lang) ([]domain.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid("location.search", "search query must not be empty")
	}
	if len(query) < 2 {
		return nil, domain.Invalid("location.search", "search query must be at least 2 characters")
	}

	locations, err := s.repo.SearchLocations(ctx, query, lang, maxSearchResults)
	if err != nil {
		return nil, domain.Internal(err, "location.search", "location search failed")
	}
	return locations, nil
}
