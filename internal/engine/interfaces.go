package engine

import (
	"context"
	"regexp"
	"time"

	"github.com/snapledger/snapledger/internal/pattern"
	"github.com/snapledger/snapledger/internal/rules"
)

// RuleSource supplies the currently published rule set. Reads are lock-free;
// the returned set may be nil before any configuration has loaded.
type RuleSource interface {
	Active() *rules.RuleSet
}

// Executor evaluates a compiled pattern against input under a deadline.
type Executor interface {
	TryMatch(ctx context.Context, re *regexp.Regexp, input string, deadline time.Duration) pattern.Outcome
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
