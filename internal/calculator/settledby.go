package calculator

import (
	"fmt"

	"github.com/ferd/tripsplit/internal/models"
)

// SettledByMap resolves every member's settled-by chain to its final target:
// the first member in the chain with no SettledByID of their own. Members
// without a redirection map to themselves. Chain walking is capped at the
// member count; exceeding the cap means a cycle and fails with
// ErrCycleDetected rather than looping.
func SettledByMap(members []models.Member) (map[string]string, error) {
	next := make(map[string]string, len(members))
	for _, m := range members {
		next[m.ID] = m.SettledByID
	}

	resolved := make(map[string]string, len(members))
	for _, m := range members {
		target := m.ID
		for hops := 0; next[target] != ""; hops++ {
			if hops >= len(members) {
				return nil, fmt.Errorf("%w: starting at member %s", ErrCycleDetected, m.ID)
			}
			target = next[target]
		}
		resolved[m.ID] = target
	}
	return resolved, nil
}
