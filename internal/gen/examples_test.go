package gen

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffigen/internal/attrs"
	"ffigen/internal/cbe"
	"ffigen/internal/gobe"
	"ffigen/internal/irfile"
)

// exampleRegistryPaths locates the IR documents shipped with the repository.
func exampleRegistryPaths(t *testing.T) []string {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.ffi.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	return paths
}

func TestExamplesGenerateForGoBackend(t *testing.T) {
	reg, err := irfile.BuildRegistry(exampleRegistryPaths(t)...)
	require.NoError(t, err)

	res := Run(reg, Config{
		Target: attrs.Target{
			Backend:  "go",
			Features: attrs.NewFeatureSet("bigint", "persistence"),
		},
		Backend: gobe.New(gobe.Config{ImportBase: "bindings", LDFlags: "-lnative"}),
	})

	require.True(t, res.Diags.IsValid(), "diagnostics: %+v", res.Diags.Errors)
	assert.Equal(t, reg.Len(), len(res.Manifest.Types), "every example type generates")

	// One host unit and one glue header per type, plus per-library prelude
	// and support units and the manifest.
	assert.NotEmpty(t, res.Files)

	byPath := make(map[string]struct{}, len(res.Files))
	for _, f := range res.Files {
		byPath[f.Path] = struct{}{}
	}

	for _, mt := range res.Manifest.Types {
		assert.Contains(t, byPath, mt.Unit)
		assert.Contains(t, byPath, mt.Glue)
	}

	assert.Contains(t, byPath, ManifestPath)
}

func TestExamplesGenerateForCBackend(t *testing.T) {
	reg, err := irfile.BuildRegistry(exampleRegistryPaths(t)...)
	require.NoError(t, err)

	res := Run(reg, Config{
		Target:  attrs.Target{Backend: "c", Features: attrs.NewFeatureSet()},
		Backend: cbe.New(),
	})

	require.True(t, res.Diags.IsValid(), "diagnostics: %+v", res.Diags.Errors)
	assert.Equal(t, reg.Len(), len(res.Manifest.Types))
}

func TestExamplesFeatureGatedMethodsAreReported(t *testing.T) {
	reg, err := irfile.BuildRegistry(exampleRegistryPaths(t)...)
	require.NoError(t, err)

	res := Run(reg, Config{
		Target:  attrs.Target{Backend: "go", Features: attrs.NewFeatureSet()},
		Backend: gobe.New(gobe.Config{}),
	})

	require.True(t, res.Diags.IsValid(), "diagnostics: %+v", res.Diags.Errors)

	// Without the opt-in features some methods drop out, visibly.
	assert.NotEmpty(t, res.Diags.Infos)
}
