package domain

import "strings"

// Preference is an opaque name/value pair persisted for a browser client.
// The value is not interpreted by the server; it only round-trips between
// the preference store and the preference cookie.
type Preference struct {
	Name  string
	Value string
}

// cookie-token characters per RFC 6265, minus separators we never want in
// a preference name
const prefNameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-."

// ValidatePreferenceName checks that a preference name can be used verbatim
// as a cookie name. The server has to emit the name inside a Set-Cookie
// header, so unlike the value it cannot be arbitrary.
func ValidatePreferenceName(name string) error {
	if name == "" {
		return Invalid("preference.validate", "preference name must not be empty")
	}
	if len(name) > 128 {
		return Invalid("preference.validate", "preference name too long (max 128 characters)")
	}
	for _, r := range name {
		if !strings.ContainsRune(prefNameChars, r) {
			return Invalid("preference.validate", "preference name may only contain letters, digits, '_', '-' and '.'")
		}
	}
	return nil
}
