package engine

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapledger/snapledger/internal/monitoring"
)

// fakeClock is a manually advanced Clock for deterministic tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestDuplicateSuppressor_WindowSuppression(t *testing.T) {
	clock := newFakeClock()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	d, err := NewDuplicateSuppressor(3*time.Second, 20, clock, metrics)
	require.NoError(t, err)

	assert.True(t, d.ShouldAccept("25.50|starbucks|expense"))
	assert.False(t, d.ShouldAccept("25.50|starbucks|expense"))

	clock.advance(2 * time.Second)
	assert.False(t, d.ShouldAccept("25.50|starbucks|expense"))

	// A rejected lookup does not refresh the timestamp, so the window is
	// measured from the first acceptance.
	clock.advance(1500 * time.Millisecond)
	assert.True(t, d.ShouldAccept("25.50|starbucks|expense"))

	assert.Equal(t, int64(2), metrics.Snapshot().DuplicatesSuppressed)
}

func TestDuplicateSuppressor_DistinctFingerprints(t *testing.T) {
	d, err := NewDuplicateSuppressor(3*time.Second, 20, newFakeClock(), nil)
	require.NoError(t, err)

	assert.True(t, d.ShouldAccept("25.50|starbucks|expense"))
	assert.True(t, d.ShouldAccept("25.50|starbucks|income"))
	assert.True(t, d.ShouldAccept("25.51|starbucks|expense"))
	assert.Equal(t, 3, d.Len())
}

func TestDuplicateSuppressor_CapacityEviction(t *testing.T) {
	d, err := NewDuplicateSuppressor(time.Hour, 2, newFakeClock(), nil)
	require.NoError(t, err)

	assert.True(t, d.ShouldAccept("a"))
	assert.True(t, d.ShouldAccept("b"))
	assert.True(t, d.ShouldAccept("c")) // evicts "a"
	assert.True(t, d.ShouldAccept("a")) // accepted again despite the window
	assert.Equal(t, 2, d.Len())
}

func TestDuplicateSuppressor_LazyTimeEviction(t *testing.T) {
	clock := newFakeClock()
	d, err := NewDuplicateSuppressor(3*time.Second, 20, clock, nil)
	require.NoError(t, err)

	require.True(t, d.ShouldAccept("a"))
	require.True(t, d.ShouldAccept("b"))
	assert.Equal(t, 2, d.Len())

	clock.advance(4 * time.Second)
	require.True(t, d.ShouldAccept("c"))

	// The expired entries were swept during the insert of "c".
	assert.Equal(t, 1, d.Len())
}

func TestDuplicateSuppressor_InvalidConfig(t *testing.T) {
	_, err := NewDuplicateSuppressor(0, 20, nil, nil)
	assert.Error(t, err)

	_, err = NewDuplicateSuppressor(time.Second, 0, nil, nil)
	assert.Error(t, err)
}
