package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffigen/internal/ir"
)

func TestFeatureSet(t *testing.T) {
	fs := NewFeatureSet("serde", "tokio", "serde")

	assert.True(t, fs.Has("serde"))
	assert.True(t, fs.Has("tokio"))
	assert.False(t, fs.Has("rayon"))
	assert.Equal(t, []string{"serde", "tokio"}, fs.Names())
}

func TestEvaluateDefaultEnabled(t *testing.T) {
	d, err := Evaluate(ir.AttrSpec{}, Target{Backend: "go"})
	require.NoError(t, err)

	assert.True(t, d.Enabled)
	assert.Nil(t, d.Rule)
	assert.Equal(t, "no matching rule, default enabled", d.Reason())
}

func TestEvaluateRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   []ir.AttrRule
		target  Target
		enabled bool
		reason  string
	}{
		{
			name: "backend disable applies",
			rules: []ir.AttrRule{
				{Backend: "go", Effect: ir.AttrDisable},
			},
			target:  Target{Backend: "go"},
			enabled: false,
			reason:  `disabled for backend "go"`,
		},
		{
			name: "backend disable skips other backend",
			rules: []ir.AttrRule{
				{Backend: "go", Effect: ir.AttrDisable},
			},
			target:  Target{Backend: "c"},
			enabled: true,
		},
		{
			name: "feature gate requires all features",
			rules: []ir.AttrRule{
				{Features: []string{"serde", "tokio"}, Effect: ir.AttrDisable},
			},
			target:  Target{Backend: "go", Features: NewFeatureSet("serde")},
			enabled: true,
		},
		{
			name: "feature gate fires with all features",
			rules: []ir.AttrRule{
				{Features: []string{"serde", "tokio"}, Effect: ir.AttrDisable},
			},
			target:  Target{Backend: "go", Features: NewFeatureSet("serde", "tokio")},
			enabled: false,
			reason:  "disabled for features [serde tokio]",
		},
		{
			name: "last matching rule wins",
			rules: []ir.AttrRule{
				{Effect: ir.AttrDisable},
				{Backend: "go", Effect: ir.AttrEnable},
			},
			target:  Target{Backend: "go"},
			enabled: true,
			reason:  `enabled for backend "go"`,
		},
		{
			name: "declaration order, not specificity",
			rules: []ir.AttrRule{
				{Backend: "go", Effect: ir.AttrEnable},
				{Effect: ir.AttrDisable},
			},
			target:  Target{Backend: "go"},
			enabled: false,
			reason:  "disabled unconditionally",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Evaluate(ir.AttrSpec{Rules: tt.rules}, tt.target)
			require.NoError(t, err)

			assert.Equal(t, tt.enabled, d.Enabled)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, d.Reason())
			}
		})
	}
}

func TestEvaluateContradiction(t *testing.T) {
	spec := ir.AttrSpec{Rules: []ir.AttrRule{
		{Backend: "go", Features: []string{"serde"}, Effect: ir.AttrEnable},
		{Backend: "go", Features: []string{"serde"}, Effect: ir.AttrDisable},
	}}

	_, err := Evaluate(spec, Target{Backend: "go", Features: NewFeatureSet("serde")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contradictory rules")
	assert.Contains(t, err.Error(), `backend="go"`)
}

func TestEvaluateContradictionDetectedEvenWhenNotMatching(t *testing.T) {
	// The contradiction is a spec defect, reported regardless of whether the
	// rules would fire for this target.
	spec := ir.AttrSpec{Rules: []ir.AttrRule{
		{Backend: "c", Effect: ir.AttrEnable},
		{Backend: "c", Effect: ir.AttrDisable},
	}}

	_, err := Evaluate(spec, Target{Backend: "go"})
	require.Error(t, err)
}
