package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		role   string
		want   Caller
	}{
		{name: "anonymous", want: Caller{}},
		{name: "user", userID: "42", want: Caller{UserID: 42}},
		{name: "admin", userID: "7", role: "admin", want: Caller{UserID: 7, IsAdmin: true}},
		{name: "admin among roles", userID: "7", role: "editor, Admin", want: Caller{UserID: 7, IsAdmin: true}},
		{name: "malformed id", userID: "abc", role: "user", want: Caller{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/order", nil)
			if tt.userID != "" {
				r.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				r.Header.Set(HeaderRole, tt.role)
			}
			assert.Equal(t, tt.want, FromRequest(r))
		})
	}
}

func TestCapabilityChecks(t *testing.T) {
	assert.ErrorIs(t, Caller{}.RequireUser(), ErrUnauthenticated)
	assert.NoError(t, User(1).RequireUser())
	assert.ErrorIs(t, User(1).RequireAdmin(), ErrForbidden)
	assert.NoError(t, Admin().RequireAdmin())
}
