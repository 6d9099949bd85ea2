package sequence

import "sync"

// Tracker hands out monotonically increasing sequence ids for request
// batches and gates response acceptance: only a batch fresher than
// everything accepted so far is applied, older batches are dropped
// silently. Dropping is expected under overlapping in-flight requests and
// is not an error.
type Tracker struct {
	mu           sync.Mutex
	next         int64
	lastAccepted int64
}

// New creates a Tracker. The first id handed out is 1.
func New() *Tracker {
	return &Tracker{}
}

// Next returns the id for the next request batch.
func (t *Tracker) Next() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	return t.next
}

// Accept records id as the freshest accepted batch and runs apply, when id
// is newer than every batch accepted before. Stale ids return false: apply
// does not run and nothing else happens. The applier runs inside the
// critical section, so merges of concurrently arriving batches never
// interleave.
func (t *Tracker) Accept(id int64, apply func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id <= t.lastAccepted {
		return false
	}
	t.lastAccepted = id
	if apply != nil {
		apply()
	}
	return true
}

// LastAccepted returns the id of the freshest accepted batch, zero before
// the first acceptance.
func (t *Tracker) LastAccepted() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastAccepted
}
