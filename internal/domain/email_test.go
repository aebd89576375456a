package domain

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenNeedsRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		account EmailAccount
		want    bool
	}{
		{
			name:    "empty access token",
			account: EmailAccount{},
			want:    true,
		},
		{
			name:    "no recorded expiry",
			account: EmailAccount{AccessToken: "tok"},
			want:    true,
		},
		{
			name: "already expired",
			account: EmailAccount{
				AccessToken:    "tok",
				TokenExpiresAt: sql.NullTime{Valid: true, Time: now.Add(-time.Hour)},
			},
			want: true,
		},
		{
			name: "expires inside the refresh window",
			account: EmailAccount{
				AccessToken:    "tok",
				TokenExpiresAt: sql.NullTime{Valid: true, Time: now.Add(3 * time.Minute)},
			},
			want: true,
		},
		{
			name: "still valid past the window",
			account: EmailAccount{
				AccessToken:    "tok",
				TokenExpiresAt: sql.NullTime{Valid: true, Time: now.Add(time.Hour)},
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.account.TokenNeedsRefresh(now))
		})
	}
}
