package pattern

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapledger/snapledger/internal/monitoring"
)

func newTestExecutor(t *testing.T, cfg ExecutorConfig, metrics *monitoring.Metrics) *Executor {
	t.Helper()
	e, err := NewExecutor(cfg, metrics)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestExecutor_TryMatch(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t, DefaultExecutorConfig(), nil)

	t.Run("match with capture group", func(t *testing.T) {
		re := regexp.MustCompile(`¥\s*([0-9.]+)`)
		out := e.TryMatch(ctx, re, "Payment successful ¥25.50", 0)
		require.Equal(t, OutcomeMatched, out.Kind)
		require.Len(t, out.Groups, 2)
		assert.Equal(t, "25.50", out.Groups[1])
	})

	t.Run("no match", func(t *testing.T) {
		re := regexp.MustCompile(`¥\s*([0-9.]+)`)
		out := e.TryMatch(ctx, re, "nothing to see here", 0)
		assert.Equal(t, OutcomeNoMatch, out.Kind)
		assert.Nil(t, out.Groups)
	})
}

func TestExecutor_CacheShortCircuits(t *testing.T) {
	ctx := context.Background()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	e := newTestExecutor(t, DefaultExecutorConfig(), metrics)

	re := regexp.MustCompile(`balance: ([0-9]+)`)
	first := e.TryMatch(ctx, re, "balance: 42", 0)
	second := e.TryMatch(ctx, re, "balance: 42", 0)

	assert.Equal(t, first, second)
	stats := metrics.Snapshot()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
}

func TestExecutor_TruncatesLongInput(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t, ExecutorConfig{MaxInputLength: 16}, nil)

	re := regexp.MustCompile(`needle`)
	input := strings.Repeat("x", 100) + "needle"
	out := e.TryMatch(ctx, re, input, 0)
	assert.Equal(t, OutcomeNoMatch, out.Kind)
}

func TestExecutor_DeadlineElapsed(t *testing.T) {
	ctx := context.Background()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	e := newTestExecutor(t, ExecutorConfig{Workers: 1}, metrics)
	e.matchFn = func(re *regexp.Regexp, input string) Outcome {
		time.Sleep(500 * time.Millisecond)
		return runMatch(re, input)
	}

	re := regexp.MustCompile(`a`)
	start := time.Now()
	out := e.TryMatch(ctx, re, "aaa", 20*time.Millisecond)
	elapsed := time.Since(start)

	assert.Equal(t, OutcomeTimeout, out.Kind)
	assert.Less(t, elapsed, 400*time.Millisecond)
	assert.Equal(t, int64(1), metrics.Snapshot().MatchTimeouts)
}

func TestExecutor_SaturatedPoolBoundsCaller(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t, ExecutorConfig{Workers: 1}, nil)
	e.matchFn = func(re *regexp.Regexp, input string) Outcome {
		time.Sleep(500 * time.Millisecond)
		return runMatch(re, input)
	}

	re := regexp.MustCompile(`a`)
	// Occupy the single worker and fill the queue slot.
	go e.TryMatch(ctx, re, "first", 600*time.Millisecond)
	go e.TryMatch(ctx, re, "second", 600*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	// With every worker stuck, submission itself must respect the deadline.
	start := time.Now()
	out := e.TryMatch(ctx, re, "third", 30*time.Millisecond)
	assert.Equal(t, OutcomeTimeout, out.Kind)
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestExecutor_CatastrophicPatternReturnsWithinDeadline(t *testing.T) {
	// (a+)+$ is the canonical exponential-backtracking shape. Go's regexp
	// runs in linear time, so this completes well before the deadline; the
	// assertion guards the contract regardless of engine.
	ctx := context.Background()
	e := newTestExecutor(t, DefaultExecutorConfig(), nil)

	re := regexp.MustCompile(`(a+)+$`)
	input := strings.Repeat("a", 5000) + "b"

	start := time.Now()
	out := e.TryMatch(ctx, re, input, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.NotEqual(t, OutcomeMatched, out.Kind)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestExecutor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	e := newTestExecutor(t, ExecutorConfig{Workers: 1}, metrics)
	e.matchFn = func(re *regexp.Regexp, input string) Outcome {
		time.Sleep(200 * time.Millisecond)
		return Outcome{Kind: OutcomeNoMatch}
	}

	// Occupy the worker so the canceled context is observed during queueing.
	go e.TryMatch(context.Background(), regexp.MustCompile(`a`), "x", 300*time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	out := e.TryMatch(ctx, regexp.MustCompile(`a`), "y", 300*time.Millisecond)
	assert.Equal(t, OutcomeCanceled, out.Kind)
	// Cancellation is caller-initiated and must not pollute the timeout
	// counter.
	assert.Equal(t, int64(0), metrics.Snapshot().MatchTimeouts)
}

func TestExecutor_TryMatchAfterClose(t *testing.T) {
	e, err := NewExecutor(ExecutorConfig{Workers: 1}, nil)
	require.NoError(t, err)
	e.Close()
	// Let the worker observe shutdown so the job cannot be picked up.
	time.Sleep(10 * time.Millisecond)

	re := regexp.MustCompile(`a`)
	out := e.TryMatch(context.Background(), re, strings.Repeat("a", 2000), 300*time.Millisecond)
	assert.Equal(t, OutcomeCanceled, out.Kind)
}
