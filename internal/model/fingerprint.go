package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fingerprint builds the normalized deduplication key for a detected
// transaction: round(amount, 2) | normalize(counterpart) | direction.
func Fingerprint(amount decimal.Decimal, counterpart string, direction Direction) string {
	normalized := strings.ToLower(strings.TrimSpace(counterpart))
	return amount.StringFixed(2) + "|" + normalized + "|" + string(direction)
}
