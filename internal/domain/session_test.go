package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Session_Valid(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{
			name:    "active and unexpired",
			session: Session{IsActive: true, ExpiresAt: now.Add(time.Hour)},
			want:    true,
		},
		{
			name:    "revoked",
			session: Session{IsActive: false, ExpiresAt: now.Add(time.Hour)},
			want:    false,
		},
		{
			name:    "expired",
			session: Session{IsActive: true, ExpiresAt: now.Add(-time.Second)},
			want:    false,
		},
		{
			name:    "expiry boundary is exclusive",
			session: Session{IsActive: true, ExpiresAt: now},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.Valid(now))

			cached := CachedSession{IsActive: tt.session.IsActive, ExpiresAt: tt.session.ExpiresAt}
			assert.Equal(t, tt.want, cached.Valid(now))
		})
	}
}
