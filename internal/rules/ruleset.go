package rules

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/monitoring"
	"github.com/snapledger/snapledger/internal/pattern"
)

// RuleSet is an immutable, versioned collection of compiled rules grouped by
// source application. Once published it is never mutated: updates construct
// a brand-new RuleSet and atomically replace the published reference.
type RuleSet struct {
	rulesByApp map[string][]*Rule
	indexByApp map[string]*keywordIndex
	blacklist  *AmountBlacklist

	Version            string
	MinConsumerVersion int
}

// keywordIndex accelerates classification for one app: a merged scanner
// built from the union of all trigger keywords (a pre-filter only, the
// engine still checks each rule's own keywords) and the union of exclude
// keywords used by the gate.
type keywordIndex struct {
	scanner  *regexp.Regexp
	excludes []string
}

// BuildStats summarizes one rule-set construction.
type BuildStats struct {
	Apps            int
	Rules           int
	DroppedRules    int
	DroppedPatterns int
}

// Build compiles a parsed payload into an immutable RuleSet. Individually
// invalid patterns are dropped (counted) while their owning rule keeps its
// remaining patterns; an invalid rule is skipped without failing the build.
func Build(p *Payload, analyzer *pattern.Analyzer, metrics *monitoring.Metrics) (*RuleSet, BuildStats, error) {
	blacklist, err := newAmountBlacklist(p.AmountBlacklist)
	if err != nil {
		return nil, BuildStats{}, err
	}

	rs := &RuleSet{
		rulesByApp:         make(map[string][]*Rule, len(p.Apps)),
		indexByApp:         make(map[string]*keywordIndex, len(p.Apps)),
		blacklist:          blacklist,
		Version:            p.Version,
		MinConsumerVersion: p.MinAppVersion,
	}

	stats := BuildStats{}
	for _, app := range p.Apps {
		if app.PackageName == "" {
			stats.DroppedRules += len(app.Rules)
			continue
		}

		compiled := make([]*Rule, 0, len(app.Rules))
		for i, rp := range app.Rules {
			rule, dropped := compileRule(app.PackageName, i, rp, analyzer, metrics)
			stats.DroppedPatterns += dropped
			if rule == nil {
				stats.DroppedRules++
				continue
			}
			compiled = append(compiled, rule)
		}

		if len(compiled) == 0 {
			continue
		}

		// Priority descending; stable so declaration order breaks ties.
		sort.SliceStable(compiled, func(a, b int) bool {
			return compiled[a].Priority > compiled[b].Priority
		})

		rs.rulesByApp[app.PackageName] = compiled
		rs.indexByApp[app.PackageName] = buildKeywordIndex(compiled)
		stats.Apps++
		stats.Rules += len(compiled)
	}

	return rs, stats, nil
}

// compileRule compiles one authored rule, returning nil when the rule itself
// is unusable. The second return is the count of dropped patterns.
func compileRule(app string, position int, rp RulePayload, analyzer *pattern.Analyzer, metrics *monitoring.Metrics) (*Rule, int) {
	direction, err := model.ParseDirection(rp.Type)
	if err != nil {
		slog.Warn("Skipping rule with unknown type", "app", app, "position", position, "type", rp.Type)
		return nil, 0
	}

	triggers := normalizeKeywords(rp.TriggerKeywords)
	if len(triggers) == 0 {
		slog.Warn("Skipping rule without trigger keywords", "app", app, "position", position)
		return nil, 0
	}

	rule := &Rule{
		ID:              fmt.Sprintf("%s/%d", app, position),
		Category:        rp.Category,
		Direction:       direction,
		TriggerKeywords: triggers,
		ExcludeKeywords: normalizeKeywords(rp.ExcludeKeywords),
		Priority:        rp.Priority,
	}

	var dropped int
	rule.AmountPatterns, dropped = compilePatterns(rule.ID, "amount", rp.AmountRegex, analyzer, metrics)
	merchantPatterns, droppedMerchant := compilePatterns(rule.ID, "merchant", rp.MerchantRegex, analyzer, metrics)
	rule.MerchantPatterns = merchantPatterns

	return rule, dropped + droppedMerchant
}

// compilePatterns validates each pattern source independently: static safety
// analysis first, then compilation. A single invalid entry is dropped with a
// counted warning, never a load failure.
func compilePatterns(ruleID, kind string, sources []string, analyzer *pattern.Analyzer, metrics *monitoring.Metrics) ([]*regexp.Regexp, int) {
	compiled := make([]*regexp.Regexp, 0, len(sources))
	dropped := 0

	for _, src := range sources {
		if verdict := analyzer.Analyze(src); !verdict.Safe {
			slog.Warn("Dropping unsafe pattern",
				"rule", ruleID, "kind", kind, "reason", verdict.Reason)
			metrics.IncPatternRejected()
			dropped++
			continue
		}

		re, err := regexp.Compile(src)
		if err != nil {
			slog.Warn("Dropping invalid pattern",
				"rule", ruleID, "kind", kind, "error", err)
			metrics.IncPatternRejected()
			dropped++
			continue
		}

		compiled = append(compiled, re)
	}

	return compiled, dropped
}

func buildKeywordIndex(sorted []*Rule) *keywordIndex {
	idx := &keywordIndex{}

	keywords := make([]string, 0, len(sorted)*2)
	keywordSet := make(map[string]struct{})
	excludeSet := make(map[string]struct{})

	for _, rule := range sorted {
		for _, kw := range rule.TriggerKeywords {
			if _, seen := keywordSet[kw]; !seen {
				keywordSet[kw] = struct{}{}
				keywords = append(keywords, kw)
			}
		}
		for _, kw := range rule.ExcludeKeywords {
			excludeSet[kw] = struct{}{}
		}
	}

	for kw := range excludeSet {
		idx.excludes = append(idx.excludes, kw)
	}
	sort.Strings(idx.excludes)

	// Longer alternatives first so the scanner prefers the most specific
	// keyword at a given offset.
	sort.Slice(keywords, func(a, b int) bool {
		return len(keywords[a]) > len(keywords[b])
	})
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	if len(quoted) > 0 {
		// Keywords are already lowercased; (?i) keeps the scanner robust to
		// mixed-case snapshot text without a second normalization pass.
		idx.scanner = regexp.MustCompile("(?i)(?:" + strings.Join(quoted, "|") + ")")
	}

	return idx
}

// RulesFor returns the priority-sorted rules for one source app.
func (rs *RuleSet) RulesFor(app string) []*Rule {
	return rs.rulesByApp[app]
}

// Apps returns the source application identifiers with at least one rule.
func (rs *RuleSet) Apps() []string {
	apps := make([]string, 0, len(rs.rulesByApp))
	for app := range rs.rulesByApp {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// HasAnyKeyword runs the app's merged keyword scanner over the snapshot
// text. A miss means no rule for this app can possibly fire.
func (rs *RuleSet) HasAnyKeyword(app, text string) bool {
	idx, ok := rs.indexByApp[app]
	if !ok || idx.scanner == nil {
		return false
	}
	return idx.scanner.MatchString(text)
}

// ExcludeKeywordsFor returns the union of exclude keywords across the app's
// rules, used by the classification gate.
func (rs *RuleSet) ExcludeKeywordsFor(app string) []string {
	idx, ok := rs.indexByApp[app]
	if !ok {
		return nil
	}
	return idx.excludes
}

// Blacklist returns the amount blacklist for this rule set.
func (rs *RuleSet) Blacklist() *AmountBlacklist {
	return rs.blacklist
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
