package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wealthplan/backend/internal/domain"
)

func Test_sessionsToEvict(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	sessionAt := func(token string, offset time.Duration) domain.Session {
		return domain.Session{SessionToken: token, CreatedAt: base.Add(offset)}
	}

	tokens := func(sessions []domain.Session) []string {
		var out []string
		for _, s := range sessions {
			out = append(out, s.SessionToken)
		}
		return out
	}

	tests := []struct {
		name   string
		active []domain.Session
		max    int
		want   []string
	}{
		{
			name: "under cap",
			active: []domain.Session{
				sessionAt("a", 0),
				sessionAt("b", time.Minute),
			},
			max:  5,
			want: nil,
		},
		{
			name:   "empty",
			active: nil,
			max:    5,
			want:   nil,
		},
		{
			name: "at cap evicts single oldest",
			active: []domain.Session{
				sessionAt("newest", 2*time.Minute),
				sessionAt("oldest", 0),
				sessionAt("middle", time.Minute),
			},
			max:  3,
			want: []string{"oldest"},
		},
		{
			name: "over cap evicts down to one free slot",
			active: []domain.Session{
				sessionAt("a", 0),
				sessionAt("b", time.Minute),
				sessionAt("c", 2*time.Minute),
				sessionAt("d", 3*time.Minute),
				sessionAt("e", 4*time.Minute),
			},
			max:  3,
			want: []string{"a", "b", "c"},
		},
		{
			name: "equal timestamps keep listing order",
			active: []domain.Session{
				sessionAt("first", 0),
				sessionAt("second", 0),
				sessionAt("third", 0),
			},
			max:  3,
			want: []string{"first"},
		},
		{
			name: "non-positive cap disables eviction",
			active: []domain.Session{
				sessionAt("a", 0),
			},
			max:  0,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sessionsToEvict(tt.active, tt.max)
			assert.Equal(t, tt.want, tokens(got))
		})
	}
}
