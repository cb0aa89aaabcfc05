package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/monitoring"
	"github.com/snapledger/snapledger/internal/pattern"
)

// PayloadStore persists accepted rule payloads so a restart does not require
// re-fetching the configuration.
type PayloadStore interface {
	SavePayload(ctx context.Context, version string, payload []byte) error
	LatestPayload(ctx context.Context) ([]byte, error)
}

// UpdateOutcomeKind tags the result of a rule payload update.
type UpdateOutcomeKind int

// Update outcome kinds.
const (
	UpdateSuccess UpdateOutcomeKind = iota
	UpdateRejected
	UpdateIncompatibleVersion
)

// UpdateOutcome is the result of one Update call. Callers switch on Kind.
type UpdateOutcome struct {
	Version         string
	Reason          string
	Kind            UpdateOutcomeKind
	RequiredVersion int
	ConsumerVersion int
}

// Err converts a failed outcome into a user-facing error wrapping the
// matching sentinel. Success maps to nil.
func (o UpdateOutcome) Err() error {
	switch o.Kind {
	case UpdateSuccess:
		return nil
	case UpdateRejected:
		return common.NewUserError(
			fmt.Sprintf("payload rejected: %s", o.Reason), common.ErrInvalidPayload)
	case UpdateIncompatibleVersion:
		return common.NewUserError(
			fmt.Sprintf("payload requires consumer version %d, have %d",
				o.RequiredVersion, o.ConsumerVersion), common.ErrIncompatibleVersion)
	default:
		return fmt.Errorf("unknown update outcome %d", o.Kind)
	}
}

// Repository owns the currently active RuleSet. Readers fetch it without
// locking via a single atomic pointer; updates serialize on a writer mutex
// and only swap the pointer after the replacement RuleSet is fully built.
type Repository struct {
	store    PayloadStore
	analyzer *pattern.Analyzer
	metrics  *monitoring.Metrics

	active atomic.Pointer[RuleSet]

	mu        sync.Mutex // serializes writers; never held by readers
	lastStats BuildStats
}

// NewRepository creates a rule repository. store may be nil, in which case
// accepted payloads are not persisted across restarts.
func NewRepository(store PayloadStore, analyzer *pattern.Analyzer, metrics *monitoring.Metrics) *Repository {
	return &Repository{
		store:    store,
		analyzer: analyzer,
		metrics:  metrics,
	}
}

// Load activates the most recently persisted payload. If no payload has ever
// been accepted (first run, or the stored payload no longer parses), the
// hard-coded built-in rule set is activated as a safety net.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		data, err := r.store.LatestPayload(ctx)
		switch {
		case err == nil:
			loadErr := r.activate(data)
			if loadErr == nil {
				return nil
			}
			slog.Warn("Stored rule payload no longer loads, falling back to built-in rules", "error", loadErr)
		case errors.Is(err, common.ErrNoStoredPayload):
			// First run.
		default:
			slog.Warn("Failed to read stored rule payload", "error", err)
		}
	}

	if r.active.Load() == nil {
		builtin, stats, err := Build(builtinPayload(), r.analyzer, r.metrics)
		if err != nil {
			return fmt.Errorf("failed to build built-in rule set: %w", err)
		}
		r.active.Store(builtin)
		r.lastStats = stats
		slog.Info("Activated built-in rule set", "rules", stats.Rules)
	}

	return nil
}

// Update parses, validates, and activates a new rule payload. The previously
// active RuleSet stays untouched on any failure; readers in flight against it
// are unaffected by a successful swap because it remains a valid immutable
// object until unreferenced.
func (r *Repository) Update(ctx context.Context, payload []byte, consumerVersion int) UpdateOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := ParsePayload(payload)
	if err != nil {
		r.metrics.IncUpdate("rejected")
		return UpdateOutcome{Kind: UpdateRejected, Reason: err.Error()}
	}

	if consumerVersion < p.MinAppVersion {
		r.metrics.IncUpdate("incompatible")
		return UpdateOutcome{
			Kind:            UpdateIncompatibleVersion,
			RequiredVersion: p.MinAppVersion,
			ConsumerVersion: consumerVersion,
		}
	}

	rs, stats, err := Build(p, r.analyzer, r.metrics)
	if err != nil {
		r.metrics.IncUpdate("rejected")
		return UpdateOutcome{Kind: UpdateRejected, Reason: err.Error()}
	}

	r.active.Store(rs)
	r.lastStats = stats

	if r.store != nil {
		if err := r.store.SavePayload(ctx, p.Version, payload); err != nil {
			// The new rule set is already live; persistence failure only
			// affects the next restart.
			slog.Warn("Failed to persist accepted rule payload", "version", p.Version, "error", err)
		}
	}

	r.metrics.IncUpdate("success")
	slog.Info("Activated rule set",
		"version", p.Version,
		"apps", stats.Apps,
		"rules", stats.Rules,
		"dropped_patterns", stats.DroppedPatterns)

	return UpdateOutcome{Kind: UpdateSuccess, Version: p.Version}
}

// Active returns the currently published RuleSet. It is nil until Load or a
// successful Update has run.
func (r *Repository) Active() *RuleSet {
	return r.active.Load()
}

// LastBuildStats reports the construction stats of the active rule set.
func (r *Repository) LastBuildStats() BuildStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStats
}

// activate parses and builds data, swapping it in on success. Caller holds mu.
func (r *Repository) activate(data []byte) error {
	p, err := ParsePayload(data)
	if err != nil {
		return err
	}
	rs, stats, err := Build(p, r.analyzer, r.metrics)
	if err != nil {
		return err
	}
	r.active.Store(rs)
	r.lastStats = stats
	slog.Info("Activated stored rule set", "version", p.Version, "rules", stats.Rules)
	return nil
}
