// Package rules implements the hot-reloadable rule configuration layer:
// payload parsing, immutable rule-set construction with a keyword index,
// and a repository that atomically publishes new rule sets to readers.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/snapledger/snapledger/internal/common"
)

// Payload is the externally authored rule configuration document.
type Payload struct {
	Version         string           `json:"version"`
	MinAppVersion   int              `json:"minAppVersion"`
	AmountBlacklist BlacklistPayload `json:"amountBlacklist"`
	Apps            []AppPayload     `json:"apps"`
}

// BlacklistPayload configures amounts that must never be recorded. Some
// platform-injected placeholder values recur across many screens and would
// otherwise be misclassified as real transactions.
type BlacklistPayload struct {
	Exact           []json.Number          `json:"exact"`
	IntegerPrefixes []int64                `json:"integerPrefixes"`
	SpecialRules    map[string]SpecialRule `json:"specialRules,omitempty"`
}

// SpecialRule narrows one integer-prefix blacklist entry.
type SpecialRule struct {
	ExactMatchOnly bool `json:"exactMatchOnly"`
}

// AppPayload groups the rules for one source application.
type AppPayload struct {
	PackageName string        `json:"packageName"`
	Rules       []RulePayload `json:"rules"`
}

// RulePayload is one matching unit as authored in the payload.
type RulePayload struct {
	Type            string   `json:"type"`
	TriggerKeywords []string `json:"triggerKeywords"`
	ExcludeKeywords []string `json:"excludeKeywords,omitempty"`
	AmountRegex     []string `json:"amountRegex"`
	MerchantRegex   []string `json:"merchantRegex,omitempty"`
	Category        string   `json:"category"`
	Priority        int      `json:"priority"`
}

// ParsePayload decodes and structurally validates a rule payload document.
// Individual rules and patterns are validated later during rule-set
// construction; only document-level problems fail the parse.
func ParsePayload(data []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}

	if p.Version == "" {
		return nil, fmt.Errorf("%w: missing version", common.ErrInvalidPayload)
	}
	if p.MinAppVersion < 0 {
		return nil, fmt.Errorf("%w: negative minAppVersion", common.ErrInvalidPayload)
	}

	return &p, nil
}
