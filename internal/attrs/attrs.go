package attrs

import (
	"fmt"
	"sort"

	"ffigen/internal/ir"
)

// FeatureSet is the set of feature names active for one generation run.
type FeatureSet map[string]struct{}

// NewFeatureSet builds a set from names; duplicates collapse.
func NewFeatureSet(names ...string) FeatureSet {
	fs := make(FeatureSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}

	return fs
}

// Has reports whether name is active.
func (fs FeatureSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Names returns the active names in sorted order.
func (fs FeatureSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Target identifies what a generation run is producing bindings for.
type Target struct {
	// Backend is the backend identity rules select on ("go", "c").
	Backend string

	Features FeatureSet
}

// Decision is the outcome of evaluating one attribute spec.
type Decision struct {
	Enabled bool

	// Rule is the winning rule, nil when the default applied.
	Rule *ir.AttrRule
}

// Reason describes what produced the decision, for diagnostics.
func (d Decision) Reason() string {
	if d.Rule == nil {
		return "no matching rule, default enabled"
	}

	verb := "enabled"
	if d.Rule.Effect == ir.AttrDisable {
		verb = "disabled"
	}

	switch {
	case d.Rule.Backend != "" && len(d.Rule.Features) > 0:
		return fmt.Sprintf("%s for backend %q with features %v", verb, d.Rule.Backend, d.Rule.Features)
	case d.Rule.Backend != "":
		return fmt.Sprintf("%s for backend %q", verb, d.Rule.Backend)
	case len(d.Rule.Features) > 0:
		return fmt.Sprintf("%s for features %v", verb, d.Rule.Features)
	default:
		return fmt.Sprintf("%s unconditionally", verb)
	}
}

// Evaluate decides whether the entity carrying spec is generated for target.
// It fails only on a contradictory spec; an unresolvable or empty spec never
// errors.
func Evaluate(spec ir.AttrSpec, target Target) (Decision, error) {
	if a, b, bad := spec.Contradiction(); bad {
		return Decision{}, fmt.Errorf("contradictory rules: %s vs %s on backend=%q features=%v",
			a.Effect, b.Effect, a.Backend, a.Features)
	}

	decision := Decision{Enabled: true}

	for i := range spec.Rules {
		rule := &spec.Rules[i]
		if !matches(*rule, target) {
			continue
		}

		decision = Decision{
			Enabled: rule.Effect == ir.AttrEnable,
			Rule:    rule,
		}
	}

	return decision, nil
}

// matches reports whether rule applies to target: the backend selector is
// empty or equal, and every listed feature is active.
func matches(rule ir.AttrRule, target Target) bool {
	if rule.Backend != "" && rule.Backend != target.Backend {
		return false
	}

	for _, f := range rule.Features {
		if !target.Features.Has(f) {
			return false
		}
	}

	return true
}
