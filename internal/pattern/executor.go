package pattern

import (
	"context"
	"crypto/sha256"
	"fmt"
	"regexp"
	"runtime"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/snapledger/snapledger/internal/monitoring"
)

// OutcomeKind tags the result of one bounded pattern evaluation.
type OutcomeKind int

// Outcome kinds.
const (
	OutcomeNoMatch OutcomeKind = iota
	OutcomeMatched
	OutcomeTimeout
	OutcomeCanceled
)

// Outcome is the result of one bounded pattern evaluation. A timeout or a
// cancellation is a normal outcome, never an error: classification degrades
// to "no match". Only deadline expiry counts toward the timeout metric;
// cancellation is caller-initiated.
type Outcome struct {
	// Groups holds the full match followed by capture groups.
	// Set only when Kind is OutcomeMatched.
	Groups []string
	Kind   OutcomeKind
}

// ExecutorConfig holds tuning knobs for the bounded executor.
type ExecutorConfig struct {
	// Workers is the fixed pool size. Zero selects from available
	// parallelism, clamped to [2, 4].
	Workers int
	// Deadline is the default wall-clock budget per evaluation.
	Deadline time.Duration
	// CacheSize bounds the (pattern, input) result cache.
	CacheSize int
	// MaxInputLength truncates longer inputs before evaluation.
	MaxInputLength int
}

// DefaultExecutorConfig returns the default executor configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Deadline:       50 * time.Millisecond,
		CacheSize:      512,
		MaxInputLength: 10000,
	}
}

// Executor evaluates compiled patterns on a fixed worker pool under a hard
// deadline. Go's regexp engine runs in linear time, so the pool and deadline
// are defense-in-depth on top of the static analyzer rather than the primary
// safety net; they also bound queueing delay when callers burst.
type Executor struct {
	jobs    chan matchJob
	done    chan struct{}
	cache   *lru.Cache[string, Outcome]
	metrics *monitoring.Metrics
	// matchFn performs the actual evaluation; replaced in tests to
	// simulate slow patterns.
	matchFn  func(re *regexp.Regexp, input string) Outcome
	deadline time.Duration
	maxInput int
}

type matchJob struct {
	re       *regexp.Regexp
	input    string
	cacheKey string
	result   chan Outcome
}

// NewExecutor creates a bounded executor and starts its worker pool.
func NewExecutor(cfg ExecutorConfig, metrics *monitoring.Metrics) (*Executor, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount()
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultExecutorConfig().Deadline
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultExecutorConfig().CacheSize
	}
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = DefaultExecutorConfig().MaxInputLength
	}

	cache, err := lru.New[string, Outcome](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern cache: %w", err)
	}

	e := &Executor{
		jobs:     make(chan matchJob, cfg.Workers),
		done:     make(chan struct{}),
		cache:    cache,
		metrics:  metrics,
		matchFn:  runMatch,
		deadline: cfg.Deadline,
		maxInput: cfg.MaxInputLength,
	}

	for i := 0; i < cfg.Workers; i++ {
		go e.worker()
	}

	return e, nil
}

// TryMatch evaluates re against input within deadline. A non-positive
// deadline selects the configured default. The caller is blocked for at most
// the deadline; an evaluation still in flight afterwards completes in the
// background and lands in the cache.
func (e *Executor) TryMatch(ctx context.Context, re *regexp.Regexp, input string, deadline time.Duration) Outcome {
	if deadline <= 0 {
		deadline = e.deadline
	}
	if len(input) > e.maxInput {
		input = input[:e.maxInput]
	}

	key := cacheKey(re, input)
	if out, ok := e.cache.Get(key); ok {
		e.metrics.IncCacheHit()
		return out
	}
	e.metrics.IncCacheMiss()

	job := matchJob{
		re:       re,
		input:    input,
		cacheKey: key,
		result:   make(chan Outcome, 1),
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	// The deadline covers queueing as well as evaluation: with every worker
	// stuck the submission itself must not block the caller. The done case
	// makes a classify racing Close return cleanly instead of sending on a
	// torn-down pool.
	select {
	case e.jobs <- job:
	case <-timer.C:
		e.metrics.IncMatchTimeout()
		return Outcome{Kind: OutcomeTimeout}
	case <-ctx.Done():
		return Outcome{Kind: OutcomeCanceled}
	case <-e.done:
		return Outcome{Kind: OutcomeCanceled}
	}

	select {
	case out := <-job.result:
		return out
	case <-timer.C:
		e.metrics.IncMatchTimeout()
		return Outcome{Kind: OutcomeTimeout}
	case <-ctx.Done():
		return Outcome{Kind: OutcomeCanceled}
	case <-e.done:
		return Outcome{Kind: OutcomeCanceled}
	}
}

// Close stops the worker pool. Safe to call while TryMatch is in flight;
// racing callers receive OutcomeCanceled.
func (e *Executor) Close() {
	close(e.done)
}

func (e *Executor) worker() {
	for {
		select {
		case <-e.done:
			return
		case job := <-e.jobs:
			out := e.matchFn(job.re, job.input)
			e.cache.Add(job.cacheKey, out)
			// Buffered channel: delivery never blocks even if the caller
			// already gave up at the deadline.
			job.result <- out
		}
	}
}

func runMatch(re *regexp.Regexp, input string) Outcome {
	groups := re.FindStringSubmatch(input)
	if groups == nil {
		return Outcome{Kind: OutcomeNoMatch}
	}
	return Outcome{Kind: OutcomeMatched, Groups: groups}
}

// cacheKey identifies one (pattern, input) evaluation. The input is hashed
// so keys stay small regardless of snapshot size.
func cacheKey(re *regexp.Regexp, input string) string {
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%s\x00%x", re.String(), sum)
}

func defaultWorkerCount() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	if n > 4 {
		return 4
	}
	return n
}
