package rules

import (
	"regexp"
	"strings"

	"github.com/snapledger/snapledger/internal/model"
)

// Rule is one compiled matching unit. Immutable once constructed; a rule is
// only ever replaced wholesale as part of a new RuleSet.
type Rule struct {
	ID               string
	Category         string
	Direction        model.Direction
	TriggerKeywords  []string // lowercased at build time
	ExcludeKeywords  []string // lowercased at build time
	AmountPatterns   []*regexp.Regexp
	MerchantPatterns []*regexp.Regexp
	Priority         int
}

// MatchesTrigger reports whether any trigger keyword occurs in the
// lowercased snapshot text.
func (r *Rule) MatchesTrigger(lowerText string) bool {
	for _, kw := range r.TriggerKeywords {
		if strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}

// MatchesExclude reports whether any exclude keyword occurs in the
// lowercased snapshot text.
func (r *Rule) MatchesExclude(lowerText string) bool {
	for _, kw := range r.ExcludeKeywords {
		if strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}
