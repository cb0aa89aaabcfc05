package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/snapledger/snapledger/internal/common"
)

// AmountBlacklist drops extracted amounts that are known platform
// placeholders rather than real transactions.
type AmountBlacklist struct {
	exact    map[string]struct{}
	prefixes []blacklistPrefix
}

type blacklistPrefix struct {
	value     decimal.Decimal
	digits    string
	exactOnly bool
}

func newAmountBlacklist(p BlacklistPayload) (*AmountBlacklist, error) {
	b := &AmountBlacklist{
		exact: make(map[string]struct{}, len(p.Exact)),
	}

	for _, n := range p.Exact {
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return nil, fmt.Errorf("%w: blacklist amount %q: %v", common.ErrInvalidPayload, n.String(), err)
		}
		b.exact[v.StringFixed(2)] = struct{}{}
	}

	for _, prefix := range p.IntegerPrefixes {
		digits := strconv.FormatInt(prefix, 10)
		entry := blacklistPrefix{
			value:  decimal.NewFromInt(prefix),
			digits: digits,
		}
		if special, ok := p.SpecialRules[digits]; ok {
			entry.exactOnly = special.ExactMatchOnly
		}
		b.prefixes = append(b.prefixes, entry)
	}

	return b, nil
}

// Blocked reports whether amount must be discarded. Exact entries always
// drop the amount. A prefix entry marked exact-match-only drops only the
// bare integer amount (10000.00 dropped, 10000.50 kept); otherwise the
// whole prefix family is dropped.
func (b *AmountBlacklist) Blocked(amount decimal.Decimal) bool {
	if b == nil {
		return false
	}

	if _, ok := b.exact[amount.StringFixed(2)]; ok {
		return true
	}

	intDigits := amount.Truncate(0).String()
	for _, p := range b.prefixes {
		if p.exactOnly {
			if amount.Equal(p.value) {
				return true
			}
			continue
		}
		if strings.HasPrefix(intDigits, p.digits) {
			return true
		}
	}

	return false
}
