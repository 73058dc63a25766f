package engine

import (
	"sort"

	"github.com/peopledesk/notify/internal/model"
)

// reconcile merges a fresh fetch batch with the current store into a new
// canonical list. The fresh batch is authoritative for backend-origin
// items: whatever the previous store held for them is discarded.
// Local-only items survive untouched. The function is pure and
// idempotent, so batches may be applied in whatever order they complete.
func reconcile(
	existing []model.Notification,
	fresh []model.Notification,
	dismissed func(id string) bool,
) []model.Notification {
	var localOnly []model.Notification
	for _, n := range existing {
		if !n.BackendOrigin() {
			localOnly = append(localOnly, n)
		}
	}

	candidates := make([]model.Notification, 0, len(fresh)+len(localOnly))
	for _, n := range fresh {
		if n.BackendOrigin() && dismissed != nil && dismissed(n.ID) {
			// Dismissed items never resurface, even when the backend
			// still returns them.
			continue
		}
		candidates = append(candidates, n)
	}
	candidates = append(candidates, localOnly...)

	// Deduplicate by id, first seen wins.
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0:0]
	for _, n := range candidates {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}

	// Newest first; the stable sort keeps insertion order for ties.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}
