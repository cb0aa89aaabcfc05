package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantSafe bool
	}{
		{
			name:     "simple amount pattern",
			source:   `¥\s*([0-9.]+)`,
			wantSafe: true,
		},
		{
			name:     "anchored merchant pattern",
			source:   `^To:\s*(.+)$`,
			wantSafe: true,
		},
		{
			name:     "optional quantified group",
			source:   `([0-9]+)?`,
			wantSafe: true,
		},
		{
			name:     "classic catastrophic backtracking shape",
			source:   `(a+)+$`,
			wantSafe: false,
		},
		{
			name:     "nested star around starred group",
			source:   `(\w*)+`,
			wantSafe: false,
		},
		{
			name:     "nested repetition on character class",
			source:   `([a-zA-Z]+)*`,
			wantSafe: false,
		},
		{
			name:     "nested repetition in non-capturing group",
			source:   `(?:a+)+`,
			wantSafe: false,
		},
		{
			name:     "unbounded brace repeat of quantified group",
			source:   `(a+){2,}`,
			wantSafe: false,
		},
		{
			name:     "adjacent quantifiers",
			source:   `a+*`,
			wantSafe: false,
		},
		{
			name:     "two unbounded wildcards without delimiter",
			source:   `.*.*`,
			wantSafe: false,
		},
		{
			name:     "two wildcards separated by literal",
			source:   `.*foo.*`,
			wantSafe: true,
		},
		{
			name:     "two wildcards separated by anchor",
			source:   `.*$^.*`,
			wantSafe: true,
		},
		{
			name:     "excessive alternation branches",
			source:   "(" + strings.Repeat("a|", 21) + "b)",
			wantSafe: false,
		},
		{
			name:     "modest alternation",
			source:   `(credit|debit|refund)`,
			wantSafe: true,
		},
		{
			name:     "excessive capture groups",
			source:   strings.Repeat("(a)", 16),
			wantSafe: false,
		},
		{
			name:     "many non-capturing groups allowed",
			source:   strings.Repeat("(?:a)", 16),
			wantSafe: true,
		},
		{
			name:     "over length ceiling",
			source:   strings.Repeat("a", 301),
			wantSafe: false,
		},
		{
			name:     "unbalanced group",
			source:   `(a`,
			wantSafe: false,
		},
		{
			name:     "escaped metacharacters are literal",
			source:   `\(a\+\)\+`,
			wantSafe: true,
		},
		{
			name:     "character class contents ignored",
			source:   `[+*()]+`,
			wantSafe: true,
		},
	}

	analyzer := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := analyzer.Analyze(tt.source)
			assert.Equal(t, tt.wantSafe, verdict.Safe, "reason: %s", verdict.Reason)
			if !tt.wantSafe {
				assert.NotEmpty(t, verdict.Reason)
			}
		})
	}
}
