package ir

import (
	"sort"
	"strings"

	"ffigen/internal/common"
)

// AttrEffect is the outcome an attribute rule applies.
type AttrEffect int

const (
	AttrEnable AttrEffect = iota
	AttrDisable
)

// String returns a human-readable effect name.
func (e AttrEffect) String() string {
	switch e {
	case AttrEnable:
		return "enable"
	case AttrDisable:
		return "disable"
	default:
		return common.UnknownStr
	}
}

// AttrRule is one resolved enable/disable rule. Attribute syntax is parsed
// upstream (internal/irfile); the core only ever sees this resolved form.
type AttrRule struct {
	// Backend selects the backend identity the rule applies to;
	// empty means every backend.
	Backend string

	// Features lists feature names that must all be active for the rule to
	// apply. Empty means unconditional.
	Features []string

	Effect AttrEffect
}

// selectorKey is the identity of a rule's applicability condition.
// Two rules with equal keys and different effects contradict each other.
func (r AttrRule) selectorKey() string {
	feats := append([]string(nil), r.Features...)
	sort.Strings(feats)

	return r.Backend + "|" + strings.Join(feats, ",")
}

// AttrSpec is the resolved attribute state of one TypeDef or MethodDef.
// An empty spec means unconditionally enabled.
type AttrSpec struct {
	Rules []AttrRule
}

// Contradiction returns the first pair of rules with identical selectors and
// opposite effects, or ok=false when the spec is consistent.
func (s AttrSpec) Contradiction() (a, b AttrRule, ok bool) {
	seen := make(map[string]AttrRule, len(s.Rules))

	for _, r := range s.Rules {
		key := r.selectorKey()
		if prev, dup := seen[key]; dup && prev.Effect != r.Effect {
			return prev, r, true
		}

		seen[key] = r
	}

	return AttrRule{}, AttrRule{}, false
}
