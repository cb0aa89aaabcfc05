// Package pattern provides safe evaluation of externally authored regular
// expressions: a static analyzer that rejects shapes prone to catastrophic
// backtracking, and a bounded executor that runs matches on a worker pool
// under a wall-clock deadline.
package pattern

import "fmt"

// Analyzer limits. Conservative by intent: the analyzer rejects the shapes
// most commonly responsible for exponential blowup, it does not prove safety.
const (
	maxSourceLength      = 300
	maxAlternationCount  = 20
	maxCaptureGroupCount = 15
)

// Verdict is the outcome of static safety analysis of one pattern source.
type Verdict struct {
	Reason string
	Safe   bool
}

// Analyzer statically inspects regular expression sources before they are
// compiled into a rule set. It is a pure function over the pattern text.
type Analyzer struct{}

// NewAnalyzer creates a pattern safety analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze inspects a candidate pattern source and reports whether it is
// acceptable for rule-set compilation.
func (a *Analyzer) Analyze(source string) Verdict {
	if len(source) > maxSourceLength {
		return unsafe(fmt.Sprintf("pattern length %d exceeds limit %d", len(source), maxSourceLength))
	}

	s := newScanner(source)
	if err := s.run(); err != nil {
		return unsafe(err.Error())
	}

	if s.captureGroups > maxCaptureGroupCount {
		return unsafe(fmt.Sprintf("%d capture groups exceeds limit %d", s.captureGroups, maxCaptureGroupCount))
	}
	if s.maxBranches > maxAlternationCount {
		return unsafe(fmt.Sprintf("%d alternation branches exceeds limit %d", s.maxBranches, maxAlternationCount))
	}

	return Verdict{Safe: true}
}

func unsafe(reason string) Verdict {
	return Verdict{Safe: false, Reason: reason}
}

// scanner walks a pattern source once, tracking group structure and
// quantifier placement. It does not fully parse the regex grammar; it only
// recognizes enough structure to flag the dangerous shapes.
type scanner struct {
	source        string
	groupHasQuant []bool // per open-group flag: a quantifier occurred inside
	branchCounts  []int  // alternation branches per open group (index 0 = top level)
	captureGroups int
	maxBranches   int
}

func newScanner(source string) *scanner {
	return &scanner{
		source:       source,
		branchCounts: []int{1},
	}
}

func (s *scanner) run() error {
	var (
		escaped       bool
		inClass       bool
		prevQuant     bool // previous token was a quantifier
		prevGroupEnd  bool // previous token closed a group
		closedHadQuant bool // the group just closed contained a quantifier
		anyDotQuant   bool // an unbounded .*/.+ seen since the last anchor or literal
		prevDot       bool
	)

	for i := 0; i < len(s.source); i++ {
		c := s.source[i]

		if escaped {
			escaped = false
			prevQuant, prevGroupEnd, prevDot = false, false, false
			anyDotQuant = false // escaped char is a fixed delimiter
			continue
		}

		if c == '\\' {
			escaped = true
			continue
		}

		if inClass {
			if c == ']' {
				inClass = false
				prevDot = false
			}
			continue
		}

		switch c {
		case '[':
			inClass = true
			prevQuant, prevGroupEnd, prevDot = false, false, false
		case '(':
			s.groupHasQuant = append(s.groupHasQuant, false)
			s.branchCounts = append(s.branchCounts, 1)
			if !isNonCapturing(s.source, i) {
				s.captureGroups++
			}
			prevQuant, prevGroupEnd, prevDot = false, false, false
		case ')':
			if len(s.groupHasQuant) == 0 {
				return fmt.Errorf("unbalanced group at offset %d", i)
			}
			closedHadQuant = s.groupHasQuant[len(s.groupHasQuant)-1]
			s.groupHasQuant = s.groupHasQuant[:len(s.groupHasQuant)-1]
			if n := s.branchCounts[len(s.branchCounts)-1]; n > s.maxBranches {
				s.maxBranches = n
			}
			s.branchCounts = s.branchCounts[:len(s.branchCounts)-1]
			prevQuant, prevDot = false, false
			prevGroupEnd = true
		case '|':
			s.branchCounts[len(s.branchCounts)-1]++
			prevQuant, prevGroupEnd, prevDot = false, false, false
		case '^', '$':
			anyDotQuant = false
			prevQuant, prevGroupEnd, prevDot = false, false, false
		case '*', '+', '{':
			if c == '{' {
				if end := skipRepeat(s.source, i); end == i {
					// Literal brace, not a repeat expression.
					anyDotQuant = false
					prevQuant, prevGroupEnd, prevDot = false, false, false
					continue
				}
			}
			unbounded := c != '{' || isUnboundedRepeat(s.source, i)
			if prevQuant {
				return fmt.Errorf("adjacent quantifiers at offset %d", i)
			}
			if prevGroupEnd && closedHadQuant && unbounded {
				return fmt.Errorf("nested repetition around quantified group at offset %d", i)
			}
			if prevDot && unbounded {
				if anyDotQuant {
					return fmt.Errorf("multiple unbounded wildcard quantifiers without a delimiter at offset %d", i)
				}
				anyDotQuant = true
			}
			s.markQuantifier()
			if c == '{' {
				i = skipRepeat(s.source, i)
			}
			prevQuant = true
			prevGroupEnd, prevDot = false, false
		case '?':
			// ? bounds repetition to one occurrence; never explosive on its own.
			if prevQuant {
				// Possessive/lazy modifier of the preceding quantifier.
				break
			}
			prevGroupEnd, prevDot = false, false
		case '.':
			prevQuant, prevGroupEnd = false, false
			prevDot = true
		default:
			// Literal character: acts as a fixed delimiter between wildcards.
			anyDotQuant = false
			prevQuant, prevGroupEnd, prevDot = false, false, false
		}
	}

	if len(s.groupHasQuant) != 0 {
		return fmt.Errorf("unbalanced group: %d unclosed", len(s.groupHasQuant))
	}
	if inClass {
		return fmt.Errorf("unterminated character class")
	}

	if n := s.branchCounts[0]; n > s.maxBranches {
		s.maxBranches = n
	}

	return nil
}

// markQuantifier records a quantifier in every currently open group.
func (s *scanner) markQuantifier() {
	for i := range s.groupHasQuant {
		s.groupHasQuant[i] = true
	}
}

// isNonCapturing reports whether the group opening at index i is a
// non-capturing or special group, i.e. "(?".
func isNonCapturing(source string, i int) bool {
	return i+1 < len(source) && source[i+1] == '?'
}

// isUnboundedRepeat reports whether the {...} repeat starting at index i has
// no upper bound, e.g. {2,}.
func isUnboundedRepeat(source string, i int) bool {
	for j := i + 1; j < len(source); j++ {
		switch source[j] {
		case '}':
			// {n} or {n,m}: bounded unless we saw a trailing comma.
			return source[j-1] == ','
		case ',', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			continue
		default:
			// Not a repeat expression at all; '{' is a literal here.
			return false
		}
	}
	return false
}

// skipRepeat advances past a {...} repeat expression, returning the index of
// the closing brace (or the opening brace if it is a literal).
func skipRepeat(source string, i int) int {
	for j := i + 1; j < len(source); j++ {
		switch source[j] {
		case '}':
			return j
		case ',', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			continue
		default:
			return i
		}
	}
	return i
}
