package prefs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/wayfind/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// prefCookieHeader returns the Set-Cookie header for the named cookie, or "".
func prefCookieHeader(rec *httptest.ResponseRecorder, name string) string {
	for _, header := range rec.Header().Values("Set-Cookie") {
		if strings.HasPrefix(header, name+"=") {
			return header
		}
	}
	return ""
}

func TestSet_WritesBothStores(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, testLogger(), false)

	req := httptest.NewRequest("POST", "/api/preferences", nil)
	rec := httptest.NewRecorder()

	err := svc.Set(context.Background(), rec, req, "theme", "dark")
	require.NoError(t, err)

	// Cookie half: the serialized header carries name=value.
	header := prefCookieHeader(rec, "theme")
	require.NotEmpty(t, header, "expected a Set-Cookie header for the preference")
	assert.Contains(t, header, "theme=dark")

	// Store half: readable under the client ID the same response minted.
	clientHeader := prefCookieHeader(rec, ClientCookieName)
	require.NotEmpty(t, clientHeader, "expected a client ID cookie to be minted")
	clientID := strings.SplitN(strings.SplitN(clientHeader, ";", 2)[0], "=", 2)[1]

	value, err := store.Get(context.Background(), clientID, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
}

func TestSet_CookieCarriesFixedPolicyAttributes(t *testing.T) {
	// The policy attributes are constants; they must appear verbatim no
	// matter what name or value is written.
	pairs := []struct{ name, value string }{
		{"theme", "dark"},
		{"lang", "de"},
		{"map.zoom", "17"},
		{"note", "a value with spaces"},
	}

	for _, pair := range pairs {
		t.Run(pair.name, func(t *testing.T) {
			svc := NewService(NewMemoryStore(), testLogger(), false)

			req := httptest.NewRequest("POST", "/api/preferences", nil)
			rec := httptest.NewRecorder()

			require.NoError(t, svc.Set(context.Background(), rec, req, pair.name, pair.value))

			header := prefCookieHeader(rec, pair.name)
			require.NotEmpty(t, header)
			assert.Contains(t, header, "Max-Age=31536000")
			assert.Contains(t, header, "SameSite=Strict")
			assert.Contains(t, header, "Path=/")
		})
	}
}

func TestSet_ReusesExistingClientID(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, testLogger(), false)

	req := httptest.NewRequest("POST", "/api/preferences", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "2f9c64e2-64cb-4b83-9a1b-50f6d5fca763"})
	rec := httptest.NewRecorder()

	require.NoError(t, svc.Set(context.Background(), rec, req, "theme", "light"))

	// No new client cookie should be minted.
	assert.Empty(t, prefCookieHeader(rec, ClientCookieName))

	value, err := store.Get(context.Background(), "2f9c64e2-64cb-4b83-9a1b-50f6d5fca763", "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)
}

func TestSet_RejectsInvalidNames(t *testing.T) {
	svc := NewService(NewMemoryStore(), testLogger(), false)

	for _, name := range []string{"", "bad name", "theme;Path=/", ClientCookieName} {
		req := httptest.NewRequest("POST", "/api/preferences", nil)
		rec := httptest.NewRecorder()

		err := svc.Set(context.Background(), rec, req, name, "v")
		assert.Error(t, err, "name %q should be rejected", name)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

		// A rejected write must not touch either store.
		assert.Empty(t, rec.Header().Values("Set-Cookie"))
	}
}

// failingStore always fails its writes, standing in for an unreachable Redis.
type failingStore struct{}

func (failingStore) Set(ctx context.Context, clientID, name, value string) error {
	return errors.New("connection refused")
}
func (failingStore) Get(ctx context.Context, clientID, name string) (string, error) {
	return "", errors.New("connection refused")
}
func (failingStore) Delete(ctx context.Context, clientID, name string) error {
	return errors.New("connection refused")
}

func TestSet_StoreFailureStillSetsCookie(t *testing.T) {
	svc := NewService(failingStore{}, testLogger(), false)

	req := httptest.NewRequest("POST", "/api/preferences", nil)
	rec := httptest.NewRecorder()

	err := svc.Set(context.Background(), rec, req, "theme", "dark")
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))

	// The cookie half went through before the store failed; the stores are
	// allowed to diverge here.
	header := prefCookieHeader(rec, "theme")
	assert.Contains(t, header, "theme=dark")
}

func TestGet_PrefersCookie(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "client-1", "theme", "stale-store-value"))

	svc := NewService(store, testLogger(), false)

	req := httptest.NewRequest("GET", "/api/preferences/theme", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "client-1"})
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})

	value, err := svc.Get(context.Background(), req, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
}

func TestGet_FallsBackToStore(t *testing.T) {
	store := NewMemoryStore()
	clientID := "7c1eab5c-9f43-4f2f-bf1c-0a4f3f1f9a11"
	require.NoError(t, store.Set(context.Background(), clientID, "theme", "dark"))

	svc := NewService(store, testLogger(), false)

	// The browser lost the preference cookie but still carries its client ID.
	req := httptest.NewRequest("GET", "/api/preferences/theme", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: clientID})

	value, err := svc.Get(context.Background(), req, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(NewMemoryStore(), testLogger(), false)

	req := httptest.NewRequest("GET", "/api/preferences/theme", nil)

	_, err := svc.Get(context.Background(), req, "theme")
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestGet_RoundTripsEscapedValues(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, testLogger(), false)

	req := httptest.NewRequest("POST", "/api/preferences", nil)
	rec := httptest.NewRecorder()

	const value = "50% grün & blau"
	require.NoError(t, svc.Set(context.Background(), rec, req, "palette", value))

	// Replay the cookies the Set issued on a follow-up request.
	readReq := httptest.NewRequest("GET", "/api/preferences/palette", nil)
	for _, cookie := range rec.Result().Cookies() {
		readReq.AddCookie(cookie)
	}

	got, err := svc.Get(context.Background(), readReq, "palette")
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestDelete_ClearsBothStores(t *testing.T) {
	store := NewMemoryStore()
	clientID := "5b7d9d3e-0b31-4f6c-8f51-2f2d9a4f6e21"
	require.NoError(t, store.Set(context.Background(), clientID, "theme", "dark"))

	svc := NewService(store, testLogger(), false)

	req := httptest.NewRequest("DELETE", "/api/preferences/theme", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: clientID})
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	rec := httptest.NewRecorder()

	require.NoError(t, svc.Delete(context.Background(), rec, req, "theme"))

	// Cookie half: expired via negative Max-Age.
	header := prefCookieHeader(rec, "theme")
	require.NotEmpty(t, header)
	assert.Contains(t, header, "Max-Age=0")

	// Store half: gone.
	_, err := store.Get(context.Background(), clientID, "theme")
	assert.Equal(t, ErrNotFound, err)
}
