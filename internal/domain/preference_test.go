package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePreferenceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple name", input: "theme", wantErr: false},
		{name: "with separators", input: "map.zoom-level_2", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "space", input: "dark mode", wantErr: true},
		{name: "semicolon", input: "theme;Path=/evil", wantErr: true},
		{name: "equals sign", input: "theme=dark", wantErr: true},
		{name: "non-ascii", input: "thème", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 129), wantErr: true},
		{name: "max length", input: strings.Repeat("a", 128), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePreferenceName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, EINVALID, ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestErrorCode_UnwrapsNestedErrors(t *testing.T) {
	inner := NotFound("location.get", "location", "mi")
	outer := Internal(inner, "handler.view", "lookup failed")

	// The outermost code wins; callers wrap deliberately.
	assert.Equal(t, EINTERNAL, ErrorCode(outer))
	assert.Equal(t, ENOTFOUND, ErrorCode(inner))
}

func TestErrorMessage_MasksInternalDetails(t *testing.T) {
	err := Internal(assert.AnError, "repo.get", "select failed on locations")

	msg := ErrorMessage(err)
	assert.NotContains(t, msg, "select failed")
	assert.Contains(t, msg, "internal error")
}
