// Package prefs implements dual-store persistence for client preferences.
//
// Every preference write lands in two places with the same value:
//
//  1. a cookie on the response, so the browser can read the setting without a
//     round trip and it survives a wiped server-side store, and
//  2. the server-side Store keyed by an opaque client ID, so the setting
//     survives the browser evicting its cookies.
//
// Reads prefer the cookie and fall back to the store. The two stores can
// diverge when the store write fails after the cookie header has been set;
// that failure is returned to the caller and logged, but the cookie is not
// rolled back.
package prefs

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/DukeRupert/wayfind/internal/domain"
	"github.com/DukeRupert/wayfind/internal/metrics"
)

// Cookie policy for preference cookies. These are fixed: one year of
// lifetime, strict same-site, and the root path so every page sees them.
const (
	// CookieMaxAge is one year in seconds.
	CookieMaxAge = 365 * 24 * 60 * 60

	// CookiePath ensures preference cookies are sent with all requests.
	CookiePath = "/"

	// ClientCookieName holds the opaque ID that keys the server-side store.
	ClientCookieName = "wayfind_client"
)

// Service performs the dual write and the cookie-first read.
type Service struct {
	store    Store
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cookies (true in production)
}

// NewService creates a preference service backed by the given store.
func NewService(store Store, logger *slog.Logger, isSecure bool) *Service {
	return &Service{
		store:    store,
		logger:   logger,
		isSecure: isSecure,
	}
}

// Set writes value under name into both the response cookie and the
// server-side store.
//
// The cookie is set unconditionally; a Set-Cookie header cannot fail
// server-side. The store write can, and its error is returned after the
// cookie has already been added, so callers that report the error to the
// client should expect the cookie half of the write to have gone through.
func (s *Service) Set(ctx context.Context, w http.ResponseWriter, r *http.Request, name, value string) error {
	if err := domain.ValidatePreferenceName(name); err != nil {
		return err
	}
	if name == ClientCookieName {
		return domain.Invalid("prefs.set", "preference name is reserved")
	}

	clientID := s.ensureClientID(w, r)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     CookiePath,
		MaxAge:   CookieMaxAge,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.isSecure,
	})

	if err := s.store.Set(ctx, clientID, name, value); err != nil {
		metrics.PreferenceWrites.WithLabelValues("store_error").Inc()
		s.logger.Warn("preference store write failed, cookie was still set",
			"name", name,
			"error", err,
		)
		return domain.Unavailable(err, "prefs.set", "The preference could not be fully saved.")
	}

	metrics.PreferenceWrites.WithLabelValues("ok").Inc()
	return nil
}

// Get reads a preference, preferring the request cookie and falling back to
// the server-side store. Returns a not-found domain error when neither store
// has a value.
func (s *Service) Get(ctx context.Context, r *http.Request, name string) (string, error) {
	if err := domain.ValidatePreferenceName(name); err != nil {
		return "", err
	}

	if cookie, err := r.Cookie(name); err == nil {
		if value, err := url.QueryUnescape(cookie.Value); err == nil {
			return value, nil
		}
		// A cookie we cannot decode is treated as absent; the store copy
		// still holds the original value.
		s.logger.Debug("ignoring undecodable preference cookie", "name", name)
	}

	clientID := s.clientID(r)
	if clientID == "" {
		return "", domain.NotFound("prefs.get", "preference", name)
	}

	value, err := s.store.Get(ctx, clientID, name)
	if err != nil {
		if err == ErrNotFound {
			return "", domain.NotFound("prefs.get", "preference", name)
		}
		return "", domain.Unavailable(err, "prefs.get", "The preference store is unavailable.")
	}
	return value, nil
}

// Delete removes the preference from both stores. The cookie is expired by
// setting a negative Max-Age; the store delete is idempotent.
func (s *Service) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request, name string) error {
	if err := domain.ValidatePreferenceName(name); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.isSecure,
	})

	clientID := s.clientID(r)
	if clientID == "" {
		return nil
	}

	if err := s.store.Delete(ctx, clientID, name); err != nil {
		return domain.Unavailable(err, "prefs.delete", "The preference could not be fully removed.")
	}
	return nil
}

// clientID returns the opaque client ID from the request, or "" when the
// browser has not been issued one yet.
func (s *Service) clientID(r *http.Request) string {
	cookie, err := r.Cookie(ClientCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// ensureClientID returns the request's client ID, minting and setting a new
// one when the browser does not carry a valid ID yet. The client cookie uses
// the same policy as preference cookies but is HttpOnly; scripts only ever
// need the preference values themselves.
func (s *Service) ensureClientID(w http.ResponseWriter, r *http.Request) string {
	if id := s.clientID(r); id != "" {
		return id
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     CookiePath,
		MaxAge:   CookieMaxAge,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.isSecure,
		HttpOnly: true,
	})
	return id
}
