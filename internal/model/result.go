package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassificationResult represents one accepted transaction detection.
type ClassificationResult struct {
	DetectedAt  time.Time
	ID          string
	SourceApp   string
	Counterpart string
	Category    string
	// SourceRuleID identifies the rule that produced this result.
	// Empty means the fallback heuristic parser was used.
	SourceRuleID string
	Direction    Direction
	Amount       decimal.Decimal
}

// Fingerprint derives the deduplication key for this result. Cosmetically
// different renderings of the same event must collapse to one key, so the
// counterpart is trimmed and lowercased and the amount is rendered with
// fixed two-decimal rounding.
func (r *ClassificationResult) Fingerprint() string {
	return Fingerprint(r.Amount, r.Counterpart, r.Direction)
}
