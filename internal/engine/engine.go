// Package engine implements the core classification pipeline for captured
// screen snapshots: exclude-keyword gating, rule matching, the heuristic
// fallback, amount blacklisting, and duplicate suppression.
package engine

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snapledger/snapledger/internal/classification"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/monitoring"
	"github.com/snapledger/snapledger/internal/pattern"
	"github.com/snapledger/snapledger/internal/rules"
)

// strongTriggerMarkers are completion markers that override the exclude
// gate: a screen carrying one of these reflects a finished transaction even
// when an exclude keyword is also present. Trigger keywords dominating
// exclude keywords is a known precision/recall trade-off carried over from
// observed production behavior.
var strongTriggerMarkers = []string{
	"success",
	"complete",
	"received",
	"deducted",
	"成功",
	"已收款",
	"已支付",
	"到账",
}

// Config holds classification engine settings.
type Config struct {
	// MatchDeadline bounds each pattern evaluation.
	MatchDeadline time.Duration
	// AmountCeiling rejects extracted amounts above it.
	AmountCeiling decimal.Decimal
	// MaxCounterpartLength bounds the counterpart label.
	MaxCounterpartLength int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MatchDeadline:        50 * time.Millisecond,
		AmountCeiling:        decimal.NewFromInt(1_000_000),
		MaxCounterpartLength: 64,
	}
}

// ClassificationEngine classifies snapshots against the active rule set.
// One engine is constructed per process by explicit composition; it owns no
// global state, so tests instantiate independent engines freely.
type ClassificationEngine struct {
	ruleSource RuleSource
	executor   Executor
	fallback   *classification.FallbackParser
	dedup      *DuplicateSuppressor
	metrics    *monitoring.Metrics
	clock      Clock
	cfg        Config
}

// New creates a classification engine from its collaborators.
func New(ruleSource RuleSource, executor Executor, dedup *DuplicateSuppressor, metrics *monitoring.Metrics, clock Clock, cfg Config) *ClassificationEngine {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.MatchDeadline <= 0 {
		cfg.MatchDeadline = DefaultConfig().MatchDeadline
	}
	if cfg.AmountCeiling.IsZero() {
		cfg.AmountCeiling = DefaultConfig().AmountCeiling
	}
	if cfg.MaxCounterpartLength <= 0 {
		cfg.MaxCounterpartLength = DefaultConfig().MaxCounterpartLength
	}

	return &ClassificationEngine{
		ruleSource: ruleSource,
		executor:   executor,
		fallback:   classification.NewFallbackParser(),
		dedup:      dedup,
		metrics:    metrics,
		clock:      clock,
		cfg:        cfg,
	}
}

// Classify runs one snapshot through the pipeline. A nil result means the
// snapshot is not a completed transaction (or a duplicate of a recent one);
// that is a normal, expected outcome, not an error. Failures inside matching
// never escape: a broken pattern is simply a pattern that did not match.
func (e *ClassificationEngine) Classify(ctx context.Context, snap model.Snapshot) *model.ClassificationResult {
	text := snap.JoinedText()
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	ruleSet := e.ruleSource.Active()

	if ruleSet != nil && !e.passesGate(ruleSet, snap.AppID, lower) {
		e.metrics.IncExcludeGateDrop()
		slog.Debug("Snapshot rejected by exclude gate", "app", snap.AppID)
		return nil
	}

	var result *model.ClassificationResult
	if ruleSet != nil {
		result = e.matchRules(ctx, ruleSet, snap, text, lower)
	}
	if result == nil {
		result = e.matchFallback(snap, text)
	}
	if result == nil {
		return nil
	}

	if ruleSet != nil && ruleSet.Blacklist().Blocked(result.Amount) {
		e.metrics.IncBlacklistDrop()
		slog.Debug("Amount dropped by blacklist", "amount", result.Amount)
		return nil
	}

	if !e.dedup.ShouldAccept(result.Fingerprint()) {
		slog.Debug("Duplicate result suppressed",
			"app", snap.AppID, "amount", result.Amount)
		return nil
	}

	return result
}

// Stats returns a snapshot of the pipeline counters.
func (e *ClassificationEngine) Stats() monitoring.Stats {
	return e.metrics.Snapshot()
}

// passesGate applies the exclude-keyword gate: a snapshot carrying an
// exclude keyword is rejected unless a strong completion marker is also
// present. Confirmation and intermediate screens must not be recorded.
func (e *ClassificationEngine) passesGate(ruleSet *rules.RuleSet, app, lower string) bool {
	for _, kw := range ruleSet.ExcludeKeywordsFor(app) {
		if strings.Contains(lower, kw) {
			return hasStrongTrigger(lower)
		}
	}
	return true
}

func hasStrongTrigger(lower string) bool {
	for _, marker := range strongTriggerMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// matchRules evaluates the app's rules in priority order. The merged
// keyword scanner short-circuits apps with no possible match. The first rule
// (by priority, then declaration order) to yield a valid amount wins.
func (e *ClassificationEngine) matchRules(ctx context.Context, ruleSet *rules.RuleSet, snap model.Snapshot, text, lower string) *model.ClassificationResult {
	if !ruleSet.HasAnyKeyword(snap.AppID, lower) {
		return nil
	}

	for _, rule := range ruleSet.RulesFor(snap.AppID) {
		if !rule.MatchesTrigger(lower) {
			continue
		}

		amount, ok := e.extractAmount(ctx, rule.AmountPatterns, text)
		if !ok {
			continue
		}

		counterpart := e.extractCounterpart(ctx, rule.MerchantPatterns, text)
		if counterpart == "" {
			counterpart = rule.Category
		}

		e.metrics.IncRuleMatch()
		return e.buildResult(snap, amount, counterpart, rule.Category, rule.Direction, rule.ID)
	}

	return nil
}

func (e *ClassificationEngine) matchFallback(snap model.Snapshot, text string) *model.ClassificationResult {
	res, ok := e.fallback.Parse(text, e.validAmount)
	if !ok {
		return nil
	}
	e.metrics.IncFallbackMatch()
	return e.buildResult(snap, res.Amount, res.Category, res.Category, res.Direction, "")
}

// extractAmount tries the rule's amount patterns in order through the
// bounded executor, accepting the first numerically valid capture. Timeouts
// are counted by the executor and treated as non-matches.
func (e *ClassificationEngine) extractAmount(ctx context.Context, patterns []*regexp.Regexp, text string) (decimal.Decimal, bool) {
	for _, re := range patterns {
		out := e.executor.TryMatch(ctx, re, text, e.cfg.MatchDeadline)
		if out.Kind != pattern.OutcomeMatched || len(out.Groups) < 2 {
			continue
		}

		amount, err := decimal.NewFromString(strings.ReplaceAll(out.Groups[1], ",", ""))
		if err != nil {
			continue
		}
		if e.validAmount(amount) {
			return amount, true
		}
	}
	return decimal.Decimal{}, false
}

// extractCounterpart tries the rule's merchant patterns in order; an absent
// or failed extraction is fine, the caller falls back to a category label.
func (e *ClassificationEngine) extractCounterpart(ctx context.Context, patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		out := e.executor.TryMatch(ctx, re, text, e.cfg.MatchDeadline)
		if out.Kind != pattern.OutcomeMatched || len(out.Groups) < 2 {
			continue
		}
		if name := strings.TrimSpace(out.Groups[1]); name != "" {
			return name
		}
	}
	return ""
}

// validAmount enforces the amount contract: positive, at or below the
// ceiling, at most two decimal places.
func (e *ClassificationEngine) validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.LessThanOrEqual(e.cfg.AmountCeiling) &&
		amount.Exponent() >= -2
}

func (e *ClassificationEngine) buildResult(snap model.Snapshot, amount decimal.Decimal, counterpart, category string, direction model.Direction, ruleID string) *model.ClassificationResult {
	if runes := []rune(counterpart); len(runes) > e.cfg.MaxCounterpartLength {
		counterpart = string(runes[:e.cfg.MaxCounterpartLength])
	}

	return &model.ClassificationResult{
		DetectedAt:   e.clock.Now(),
		ID:           uuid.NewString(),
		SourceApp:    snap.AppID,
		Counterpart:  counterpart,
		Category:     category,
		SourceRuleID: ruleID,
		Direction:    direction,
		Amount:       amount,
	}
}
