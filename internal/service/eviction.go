package service

import (
	"sort"

	"github.com/wealthplan/backend/internal/domain"
)

// sessionsToEvict picks which sessions to revoke before inserting a new one
// so the active count stays within max. Strictly oldest created_at first; the
// stable sort keeps the store's insertion order for equal timestamps, so
// eviction stays deterministic.
func sessionsToEvict(active []domain.Session, max int) []domain.Session {
	if max <= 0 || len(active) < max {
		return nil
	}

	victims := make([]domain.Session, len(active))
	copy(victims, active)
	sort.SliceStable(victims, func(i, j int) bool {
		return victims[i].CreatedAt.Before(victims[j].CreatedAt)
	})

	return victims[:len(active)-max+1]
}
