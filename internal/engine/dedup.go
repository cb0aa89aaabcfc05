package engine

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/snapledger/snapledger/internal/monitoring"
)

// DuplicateSuppressor drops classifications whose fingerprint was already
// accepted within the suppression window. Overlapping capture sources
// observing the same real-world event produce near-simultaneous detections
// that normalize to the same fingerprint.
type DuplicateSuppressor struct {
	clock   Clock
	metrics *monitoring.Metrics
	window  time.Duration

	// entries maps fingerprint to last-seen time. The LRU bounds capacity
	// independently of time-based eviction.
	mu      sync.Mutex
	entries *lru.Cache[string, time.Time]
}

// NewDuplicateSuppressor creates a suppressor with the given window and
// capacity. Capacity eviction is least-recently-used; time eviction is lazy,
// performed at the start of each ShouldAccept call.
func NewDuplicateSuppressor(window time.Duration, capacity int, clock Clock, metrics *monitoring.Metrics) (*DuplicateSuppressor, error) {
	if window <= 0 {
		return nil, fmt.Errorf("suppression window must be positive, got %v", window)
	}
	entries, err := lru.New[string, time.Time](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create suppression cache: %w", err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &DuplicateSuppressor{
		clock:   clock,
		metrics: metrics,
		window:  window,
		entries: entries,
	}, nil
}

// ShouldAccept reports whether a classification with this fingerprint should
// be recorded. A false return means a duplicate was seen within the window.
// The eviction + lookup + insert sequence is one short critical section; the
// map is small so the full sweep is bounded.
func (d *DuplicateSuppressor) ShouldAccept(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	for _, key := range d.entries.Keys() {
		if seen, ok := d.entries.Peek(key); ok && now.Sub(seen) > d.window {
			d.entries.Remove(key)
		}
	}

	if _, ok := d.entries.Get(fingerprint); ok {
		d.metrics.IncDuplicateSuppressed()
		return false
	}

	d.entries.Add(fingerprint, now)
	return true
}

// Len reports the number of live fingerprints, for diagnostics.
func (d *DuplicateSuppressor) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.Len()
}
