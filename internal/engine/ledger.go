package engine

// dismissalLedger is a bounded ordered set of dismissed notification
// ids. Once a backend-origin notification is dismissed its id lands
// here, and the reconciler filters it out of every future fetch. The
// ledger is the one piece of engine state that survives logout.
//
// Not safe for concurrent use on its own; the engine's mutex guards it.
type dismissalLedger struct {
	capacity int
	order    []string
	set      map[string]struct{}
}

// newDismissalLedger creates a ledger seeded with previously persisted
// ids, oldest first, so FIFO eviction order carries across restarts.
func newDismissalLedger(capacity int, seed []string) *dismissalLedger {
	l := &dismissalLedger{
		capacity: capacity,
		set:      make(map[string]struct{}, len(seed)),
	}
	for _, id := range seed {
		l.record(id)
	}
	return l
}

// record inserts an id if absent, evicting the oldest entry when the
// ledger is full. It reports whether the id was newly added.
func (l *dismissalLedger) record(id string) bool {
	if _, ok := l.set[id]; ok {
		return false
	}

	l.order = append(l.order, id)
	l.set[id] = struct{}{}

	for l.capacity > 0 && len(l.order) > l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.set, oldest)
	}
	return true
}

// Contains reports whether id has been dismissed.
func (l *dismissalLedger) Contains(id string) bool {
	_, ok := l.set[id]
	return ok
}

// Len returns the number of ids currently held.
func (l *dismissalLedger) Len() int {
	return len(l.order)
}
