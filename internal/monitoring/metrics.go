// Package monitoring exposes diagnostic counters for the classification
// pipeline. Counters are advisory: they are not part of the correctness
// contract and every recording method is safe on a nil receiver so that
// tests can pass nil instead of a registry.
package monitoring

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects classification pipeline counters.
type Metrics struct {
	matchTimeouts        prometheus.Counter
	patternsRejected     prometheus.Counter
	duplicatesSuppressed prometheus.Counter
	ruleMatches          prometheus.Counter
	fallbackMatches      prometheus.Counter
	blacklistDrops       prometheus.Counter
	excludeGateDrops     prometheus.Counter
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	updates              *prometheus.CounterVec

	// Mirrors for Stats(); prometheus counters are write-only from Go.
	timeoutCount   atomic.Int64
	rejectedCount  atomic.Int64
	duplicateCount atomic.Int64
	ruleMatchCount atomic.Int64
	fallbackCount  atomic.Int64
	blacklistCount atomic.Int64
	excludeCount   atomic.Int64
	cacheHitCount  atomic.Int64
	cacheMissCount atomic.Int64
}

// Stats is a point-in-time snapshot of the pipeline counters.
type Stats struct {
	MatchTimeouts        int64
	PatternsRejected     int64
	DuplicatesSuppressed int64
	RuleMatches          int64
	FallbackMatches      int64
	BlacklistDrops       int64
	ExcludeGateDrops     int64
	CacheHits            int64
	CacheMisses          int64
}

// NewMetrics creates a metrics collector and registers its collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		matchTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "pattern_match_timeouts_total",
			Help:      "Pattern evaluations abandoned at the execution deadline.",
		}),
		patternsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "patterns_rejected_total",
			Help:      "Rule patterns dropped at load time (invalid syntax or unsafe shape).",
		}),
		duplicatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "duplicates_suppressed_total",
			Help:      "Classifications discarded as duplicates of a recent detection.",
		}),
		ruleMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "rule_matches_total",
			Help:      "Classifications produced by a configured rule.",
		}),
		fallbackMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "fallback_matches_total",
			Help:      "Classifications produced by the built-in heuristic parser.",
		}),
		blacklistDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "blacklist_drops_total",
			Help:      "Extracted amounts discarded by the amount blacklist.",
		}),
		excludeGateDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "exclude_gate_drops_total",
			Help:      "Snapshots rejected by the exclude-keyword gate.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "pattern_cache_hits_total",
			Help:      "Pattern executions short-circuited by the result cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "pattern_cache_misses_total",
			Help:      "Pattern executions that missed the result cache.",
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snapledger",
			Name:      "rule_updates_total",
			Help:      "Rule payload update attempts by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.matchTimeouts, m.patternsRejected, m.duplicatesSuppressed,
			m.ruleMatches, m.fallbackMatches, m.blacklistDrops,
			m.excludeGateDrops, m.cacheHits, m.cacheMisses, m.updates,
		)
	}

	return m
}

// IncMatchTimeout records a pattern evaluation abandoned at its deadline.
func (m *Metrics) IncMatchTimeout() {
	if m == nil {
		return
	}
	m.matchTimeouts.Inc()
	m.timeoutCount.Add(1)
}

// IncPatternRejected records a pattern dropped during rule-set construction.
func (m *Metrics) IncPatternRejected() {
	if m == nil {
		return
	}
	m.patternsRejected.Inc()
	m.rejectedCount.Add(1)
}

// IncDuplicateSuppressed records a classification discarded as a duplicate.
func (m *Metrics) IncDuplicateSuppressed() {
	if m == nil {
		return
	}
	m.duplicatesSuppressed.Inc()
	m.duplicateCount.Add(1)
}

// IncRuleMatch records a classification produced by a configured rule.
func (m *Metrics) IncRuleMatch() {
	if m == nil {
		return
	}
	m.ruleMatches.Inc()
	m.ruleMatchCount.Add(1)
}

// IncFallbackMatch records a classification produced by the heuristic parser.
func (m *Metrics) IncFallbackMatch() {
	if m == nil {
		return
	}
	m.fallbackMatches.Inc()
	m.fallbackCount.Add(1)
}

// IncBlacklistDrop records an amount discarded by the blacklist.
func (m *Metrics) IncBlacklistDrop() {
	if m == nil {
		return
	}
	m.blacklistDrops.Inc()
	m.blacklistCount.Add(1)
}

// IncExcludeGateDrop records a snapshot rejected by the exclude gate.
func (m *Metrics) IncExcludeGateDrop() {
	if m == nil {
		return
	}
	m.excludeGateDrops.Inc()
	m.excludeCount.Add(1)
}

// IncCacheHit records a pattern-cache hit.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
	m.cacheHitCount.Add(1)
}

// IncCacheMiss records a pattern-cache miss.
func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
	m.cacheMissCount.Add(1)
}

// IncUpdate records a rule payload update attempt with its outcome label.
func (m *Metrics) IncUpdate(outcome string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(outcome).Inc()
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		MatchTimeouts:        m.timeoutCount.Load(),
		PatternsRejected:     m.rejectedCount.Load(),
		DuplicatesSuppressed: m.duplicateCount.Load(),
		RuleMatches:          m.ruleMatchCount.Load(),
		FallbackMatches:      m.fallbackCount.Load(),
		BlacklistDrops:       m.blacklistCount.Load(),
		ExcludeGateDrops:     m.excludeCount.Load(),
		CacheHits:            m.cacheHitCount.Load(),
		CacheMisses:          m.cacheMissCount.Load(),
	}
}
