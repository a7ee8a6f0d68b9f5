// Package labor holds the per-case labor ledger: the single source of truth
// for estimated and confirmed labor hours during a diagnostic session.
package labor

import (
	"sync"
	"time"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

// Ledger stores one LaborEntry per case. It is created once per process and
// handed to whoever needs it. All methods are safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*record
	now     func() time.Time
}

type record struct {
	entry   domain.LaborEntry
	touched time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for ConfirmedAt and eviction.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		entries: make(map[string]*record),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetEstimate records the latest assistant estimate. Confirmation fields are
// left alone.
func (l *Ledger) SetEstimate(caseID string, hours float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.recordLocked(caseID)
	r.entry.EstimatedHours = hours
}

// Confirm records a confirmed (or overridden) labor total stamped with the
// current time. When no estimate exists yet it is backfilled with hours.
func (l *Ledger) Confirm(caseID string, hours float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.recordLocked(caseID)
	now := l.now()
	r.entry.ConfirmedHours = hours
	r.entry.ConfirmedAt = &now
	if r.entry.EstimatedHours == 0 {
		r.entry.EstimatedHours = hours
	}
}

// Entry returns a copy of the case's record.
func (l *Ledger) Entry(caseID string) (domain.LaborEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.entries[caseID]
	if !ok {
		return domain.LaborEntry{}, false
	}
	return copyEntry(r.entry), true
}

// ConfirmedHours returns the confirmed total. Zero counts as unconfirmed.
func (l *Ledger) ConfirmedHours(caseID string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.entries[caseID]
	if !ok || r.entry.ConfirmedHours == 0 {
		return 0, false
	}
	return r.entry.ConfirmedHours, true
}

// Restore seeds a case from persisted state. It never overwrites a record
// the ledger already holds; it reports whether the seed was applied.
func (l *Ledger) Restore(caseID string, e domain.LaborEntry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[caseID]; ok {
		return false
	}
	l.entries[caseID] = &record{entry: copyEntry(e), touched: l.now()}
	return true
}

// Evict drops a case's record.
func (l *Ledger) Evict(caseID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, caseID)
}

// EvictIdle drops every record untouched for longer than maxIdle and returns
// how many were removed. The diagnostic service runs it on every case load,
// so long-lived processes only cache cases that are still being worked.
func (l *Ledger) EvictIdle(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxIdle)
	n := 0
	for id, r := range l.entries {
		if r.touched.Before(cutoff) {
			delete(l.entries, id)
			n++
		}
	}
	return n
}

// Len is the number of cached cases, reported with each turn's log record.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// recordLocked returns the record for caseID, creating an empty one. Callers
// must hold l.mu.
func (l *Ledger) recordLocked(caseID string) *record {
	r, ok := l.entries[caseID]
	if !ok {
		r = &record{}
		l.entries[caseID] = r
	}
	r.touched = l.now()
	return r
}

func copyEntry(e domain.LaborEntry) domain.LaborEntry {
	if e.ConfirmedAt != nil {
		t := *e.ConfirmedAt
		e.ConfirmedAt = &t
	}
	return e
}
