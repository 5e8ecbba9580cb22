// ABOUTME: Tests for bearer token extraction
// ABOUTME: Covers scheme matching, trimming, and absent headers

package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "standard", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "surrounding space", header: "Bearer   abc  ", want: "abc"},
		{name: "missing header", header: "", want: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "scheme only", header: "Bearer ", want: ""},
		{name: "no separator", header: "Bearerabc", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/session/account", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(r))
		})
	}
}

func TestIncludeFromQuery(t *testing.T) {
	assert.Equal(t, "account.profile", string(IncludeFromQuery("profile")))
	assert.Empty(t, string(IncludeFromQuery("")))
	assert.Empty(t, string(IncludeFromQuery("true")))
}
