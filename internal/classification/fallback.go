// Package classification provides the built-in heuristic fallback parser
// used when no configured rule matches a snapshot. It guarantees the system
// still functions when the rule configuration is empty or entirely rejected.
package classification

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/snapledger/snapledger/internal/model"
)

// Fallback categories.
const (
	CategoryIncome   = "Income"
	CategoryExpense  = "Expense"
	CategoryTransfer = "Transfer"
)

// Result is a fallback classification: direction and category from the
// marker lists, amount from the built-in extraction patterns.
type Result struct {
	Category  string
	Direction model.Direction
	Amount    decimal.Decimal
}

// FallbackParser classifies snapshot text with fixed keyword lists and a
// fixed amount-pattern list.
type FallbackParser struct {
	amountPatterns  []*regexp.Regexp
	incomeMarkers   []string
	expenseMarkers  []string
	transferMarkers []string
}

// NewFallbackParser creates the built-in heuristic parser.
func NewFallbackParser() *FallbackParser {
	sources := defaultAmountPatterns()
	compiled := make([]*regexp.Regexp, len(sources))
	for i, src := range sources {
		compiled[i] = regexp.MustCompile(src)
	}

	return &FallbackParser{
		amountPatterns:  compiled,
		incomeMarkers:   defaultIncomeMarkers(),
		expenseMarkers:  defaultExpenseMarkers(),
		transferMarkers: defaultTransferMarkers(),
	}
}

// Parse attempts a heuristic classification of the snapshot text. valid
// filters candidate amounts; the first extracted amount that parses and
// passes it wins. Returns false when no marker or no acceptable amount is
// found, which is the normal outcome for non-transaction screens.
func (p *FallbackParser) Parse(text string, valid func(decimal.Decimal) bool) (Result, bool) {
	lower := strings.ToLower(text)

	var (
		direction model.Direction
		category  string
	)
	switch {
	case containsAny(lower, p.transferMarkers):
		direction, category = model.DirectionExpense, CategoryTransfer
	case containsAny(lower, p.incomeMarkers):
		direction, category = model.DirectionIncome, CategoryIncome
	case containsAny(lower, p.expenseMarkers):
		direction, category = model.DirectionExpense, CategoryExpense
	default:
		return Result{}, false
	}

	for _, re := range p.amountPatterns {
		groups := re.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(groups[1], ",", ""))
		if err != nil {
			continue
		}
		if valid != nil && !valid(amount) {
			continue
		}
		return Result{
			Category:  category,
			Direction: direction,
			Amount:    amount,
		}, true
	}

	return Result{}, false
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
