// Package i18n resolves the display language for a request.
//
// Location data is stored in English and German. The language is picked, in
// order, from the "lang" query parameter, the "lang" preference cookie
// (written through the preference service), and the Accept-Language header.
package i18n

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Lang identifies one of the supported content languages.
type Lang string

const (
	LangEN Lang = "en"
	LangDE Lang = "de"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference. The cookie is
	// written by the preference service under this name.
	LangCookieName = "lang"
)

var supported = []language.Tag{
	language.English, // first entry is the default
	language.German,
}

var matcher = language.NewMatcher(supported)

// Default returns the fallback language.
func Default() Lang {
	return LangEN
}

// Parse maps a raw language value ("de", "de-AT", "en_US") to a supported
// Lang. The bool reports whether the value was recognized.
func Parse(value string) (Lang, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default(), false
	}
	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return Default(), false
	}
	_, index, conf := matcher.Match(tag)
	if conf == language.No {
		return Default(), false
	}
	return fromIndex(index), true
}

// Resolve determines the language for the request.
// The bool indicates whether the lang query param should be persisted as a
// preference.
func Resolve(r *http.Request) (Lang, bool) {
	if r == nil {
		return Default(), false
	}

	if value := r.URL.Query().Get(LangParam); value != "" {
		if lang, ok := Parse(value); ok {
			return lang, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		// Preference cookies hold URL-escaped values.
		value, err := url.QueryUnescape(cookie.Value)
		if err == nil {
			if lang, ok := Parse(value); ok {
				return lang, false
			}
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			_, index, _ := matcher.Match(tags...)
			return fromIndex(index), false
		}
	}

	return Default(), false
}

func fromIndex(index int) Lang {
	if index == 1 {
		return LangDE
	}
	return LangEN
}
