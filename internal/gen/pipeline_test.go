package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffigen/internal/attrs"
	"ffigen/internal/cbe"
	"ffigen/internal/diagnostic"
	"ffigen/internal/gobe"
	"ffigen/internal/ir"
	"ffigen/internal/registry"
)

func i32Ref() ir.TypeRef { return ir.Prim(ir.PrimI32) }

// counterDefs is a minimal library: one opaque type with one static method.
func counterDefs() []ir.TypeDef {
	ret := i32Ref()

	return []ir.TypeDef{
		{
			ID:   ir.TypeID{Library: "calc", Name: "OpaqueStruct"},
			Kind: ir.TypeKindOpaque,
			Methods: []ir.MethodDef{
				{
					Name: "add_two",
					Self: ir.SelfNone,
					Params: []ir.ParamDef{
						{Name: "value", Type: i32Ref()},
					},
					Return: &ret,
				},
			},
		},
	}
}

func mustRegistry(t *testing.T, defs []ir.TypeDef) *registry.Registry {
	t.Helper()

	reg, err := registry.Build(defs)
	require.NoError(t, err)

	return reg
}

func goTarget(features ...string) attrs.Target {
	return attrs.Target{Backend: "go", Features: attrs.NewFeatureSet(features...)}
}

func TestRunEmitsMethodAndDestructorSymbols(t *testing.T) {
	reg := mustRegistry(t, counterDefs())

	res := Run(reg, Config{
		Target:  goTarget(),
		Backend: gobe.New(gobe.Config{ImportBase: "bindings"}),
	})

	require.True(t, res.Diags.IsValid(), "diagnostics: %+v", res.Diags.Errors)
	require.Len(t, res.Manifest.Types, 1)

	mt := res.Manifest.Types[0]
	assert.Equal(t, "calc.OpaqueStruct", mt.ID)
	assert.Equal(t, "opaque", mt.Kind)
	assert.Equal(t, []string{"OpaqueStruct_add_two", "OpaqueStruct_destroy"}, mt.Symbols)

	var paths []string
	for _, f := range res.Files {
		paths = append(paths, f.Path)
	}

	assert.Equal(t, []string{
		"calc/OpaqueStruct.ffi.h",
		"calc/OpaqueStruct.go",
		"calc/ffigen.ffi.h",
		"calc/ffigen_support.go",
		ManifestPath,
	}, paths)
}

func TestRunOutputIsIdenticalAtAnyParallelism(t *testing.T) {
	defs := counterDefs()
	defs = append(defs,
		ir.TypeDef{
			ID:   ir.TypeID{Library: "calc", Name: "Mode"},
			Kind: ir.TypeKindEnum,
			Variants: []ir.EnumVariant{
				{Name: "exact", Ordinal: 0},
				{Name: "lossy", Ordinal: 1},
			},
		},
		ir.TypeDef{
			ID:     ir.TypeID{Library: "calc", Name: "Pair"},
			Kind:   ir.TypeKindStruct,
			Fields: []ir.FieldDef{{Name: "a", Type: i32Ref()}, {Name: "b", Type: i32Ref()}},
		},
	)

	reg := mustRegistry(t, defs)

	runWith := func(jobs int) *Result {
		return Run(reg, Config{
			Target:  goTarget(),
			Backend: gobe.New(gobe.Config{ImportBase: "bindings"}),
			Jobs:    jobs,
		})
	}

	serial := runWith(1)
	parallel := runWith(8)

	require.True(t, serial.Diags.IsValid())
	require.Equal(t, len(serial.Files), len(parallel.Files))

	for i := range serial.Files {
		assert.Equal(t, serial.Files[i].Path, parallel.Files[i].Path)
		assert.Equal(t, string(serial.Files[i].Content), string(parallel.Files[i].Content),
			"content of %s differs between jobs=1 and jobs=8", serial.Files[i].Path)
	}

	assert.Equal(t, serial.Diags, parallel.Diags)
	assert.Equal(t, serial.Manifest, parallel.Manifest)
}

// disabledRefDefs declares Hidden (disabled for the go backend) and User,
// whose method signature mentions Hidden.
func disabledRefDefs() []ir.TypeDef {
	hiddenID := ir.TypeID{Library: "lib", Name: "Hidden"}

	return []ir.TypeDef{
		{
			ID:   hiddenID,
			Kind: ir.TypeKindOpaque,
			Attrs: ir.AttrSpec{Rules: []ir.AttrRule{
				{Backend: "go", Effect: ir.AttrDisable},
			}},
		},
		{
			ID:   ir.TypeID{Library: "lib", Name: "User"},
			Kind: ir.TypeKindOpaque,
			Methods: []ir.MethodDef{
				{
					Name: "inspect",
					Self: ir.SelfBorrowed,
					Params: []ir.ParamDef{
						{Name: "target", Type: ir.Opaque(hiddenID, true)},
					},
				},
			},
		},
	}
}

func TestRunRejectsReferenceToDisabledType(t *testing.T) {
	reg := mustRegistry(t, disabledRefDefs())

	res := Run(reg, Config{
		Target:  goTarget(),
		Backend: gobe.New(gobe.Config{}),
	})

	require.True(t, res.Diags.HasErrors())
	require.Len(t, res.Diags.Errors, 1)

	e := res.Diags.Errors[0]
	assert.Equal(t, diagnostic.CodeUnresolvedTypeReference, e.Code)
	assert.Equal(t, "lib.User", e.Type)
	assert.Equal(t, "inspect", e.Method)

	// The disabled type itself is an info, never an error.
	require.Len(t, res.Diags.Infos, 1)
	assert.Equal(t, diagnostic.CodeDisabledByAttribute, res.Diags.Infos[0].Code)
	assert.Equal(t, "lib.Hidden", res.Diags.Infos[0].Type)

	// Neither type appears in the manifest.
	assert.Empty(t, res.Manifest.Types)
}

func TestRunRejectsFieldReferenceToDisabledType(t *testing.T) {
	hiddenID := ir.TypeID{Library: "lib", Name: "Hidden"}

	defs := []ir.TypeDef{
		{
			ID:   hiddenID,
			Kind: ir.TypeKindEnum,
			Variants: []ir.EnumVariant{
				{Name: "fast", Ordinal: 0},
			},
			Attrs: ir.AttrSpec{Rules: []ir.AttrRule{
				{Backend: "go", Effect: ir.AttrDisable},
			}},
		},
		{
			ID:   ir.TypeID{Library: "lib", Name: "Carrier"},
			Kind: ir.TypeKindStruct,
			Fields: []ir.FieldDef{
				{Name: "mode", Type: ir.Enum(hiddenID)},
			},
		},
	}

	reg := mustRegistry(t, defs)

	res := Run(reg, Config{
		Target:  goTarget(),
		Backend: gobe.New(gobe.Config{}),
	})

	require.True(t, res.Diags.HasErrors())
	require.Len(t, res.Diags.Errors, 1)

	e := res.Diags.Errors[0]
	assert.Equal(t, diagnostic.CodeUnresolvedTypeReference, e.Code)
	assert.Equal(t, "lib.Carrier", e.Type)
	assert.Contains(t, e.Message, `field "mode"`)

	// The struct produces no unit: its field would name a type absent from
	// this backend's output.
	assert.Empty(t, res.Manifest.Types)

	for _, f := range res.Files {
		assert.NotContains(t, f.Path, "Carrier")
	}
}

func TestRunOtherBackendStillSeesBothTypes(t *testing.T) {
	reg := mustRegistry(t, disabledRefDefs())

	res := Run(reg, Config{
		Target:  attrs.Target{Backend: "c", Features: attrs.NewFeatureSet()},
		Backend: cbe.New(),
	})

	require.True(t, res.Diags.IsValid(), "diagnostics: %+v", res.Diags.Errors)
	assert.Len(t, res.Manifest.Types, 2)
}

func TestRunDisabledMethodIsDropped(t *testing.T) {
	retRef := i32Ref()
	defs := []ir.TypeDef{{
		ID:   ir.TypeID{Library: "lib", Name: "Gadget"},
		Kind: ir.TypeKindOpaque,
		Methods: []ir.MethodDef{
			{Name: "base", Self: ir.SelfBorrowed, Return: &retRef},
			{
				Name: "extra",
				Self: ir.SelfBorrowed,
				// Last matching rule wins: disabled by default, opted back
				// in when the extras feature is active.
				Attrs: ir.AttrSpec{Rules: []ir.AttrRule{
					{Effect: ir.AttrDisable},
					{Features: []string{"extras"}, Effect: ir.AttrEnable},
				}},
			},
		},
	}}

	reg := mustRegistry(t, defs)

	without := Run(reg, Config{Target: goTarget(), Backend: gobe.New(gobe.Config{})})
	require.True(t, without.Diags.IsValid())
	require.Len(t, without.Manifest.Types, 1)
	assert.Equal(t, []string{"Gadget_base", "Gadget_destroy"}, without.Manifest.Types[0].Symbols)
	require.Len(t, without.Diags.Infos, 1)
	assert.Equal(t, "extra", without.Diags.Infos[0].Method)

	with := Run(reg, Config{Target: goTarget("extras"), Backend: gobe.New(gobe.Config{})})
	require.True(t, with.Diags.IsValid())
	assert.Equal(t, []string{"Gadget_base", "Gadget_extra", "Gadget_destroy"}, with.Manifest.Types[0].Symbols)
}

func TestRunContradictoryAttributesFailTheType(t *testing.T) {
	defs := counterDefs()
	defs[0].Attrs = ir.AttrSpec{Rules: []ir.AttrRule{
		{Backend: "go", Effect: ir.AttrEnable},
		{Backend: "go", Effect: ir.AttrDisable},
	}}

	reg := mustRegistry(t, defs)
	res := Run(reg, Config{Target: goTarget(), Backend: gobe.New(gobe.Config{})})

	require.Len(t, res.Diags.Errors, 1)
	assert.Equal(t, diagnostic.CodeAttributeResolution, res.Diags.Errors[0].Code)
	assert.Empty(t, res.Manifest.Types)
}

func TestRunFailureOfOneTypeDoesNotHaltOthers(t *testing.T) {
	defs := counterDefs()
	defs = append(defs, ir.TypeDef{
		ID:   ir.TypeID{Library: "calc", Name: "Broken"},
		Kind: ir.TypeKindOpaque,
		Methods: []ir.MethodDef{{
			Name: "poke",
			Self: ir.SelfBorrowed,
			// "out" is reserved for the hidden out-pointer slot.
			Params: []ir.ParamDef{{Name: "out", Type: i32Ref()}},
		}},
	})

	reg := mustRegistry(t, defs)
	res := Run(reg, Config{Target: goTarget(), Backend: gobe.New(gobe.Config{})})

	require.True(t, res.Diags.HasErrors())
	require.Len(t, res.Diags.Errors, 1)
	assert.Equal(t, diagnostic.CodeNamingConflict, res.Diags.Errors[0].Code)
	assert.Equal(t, "calc.Broken", res.Diags.Errors[0].Type)

	// The healthy sibling is still generated in full.
	require.Len(t, res.Manifest.Types, 1)
	assert.Equal(t, "calc.OpaqueStruct", res.Manifest.Types[0].ID)
}

func TestRunCrossLibrarySymbolCollision(t *testing.T) {
	defs := []ir.TypeDef{
		{ID: ir.TypeID{Library: "alpha", Name: "Thing"}, Kind: ir.TypeKindOpaque},
		{ID: ir.TypeID{Library: "beta", Name: "Thing"}, Kind: ir.TypeKindOpaque},
	}

	reg := mustRegistry(t, defs)
	res := Run(reg, Config{Target: goTarget(), Backend: gobe.New(gobe.Config{})})

	require.True(t, res.Diags.HasErrors())
	assert.Equal(t, diagnostic.CodeNamingConflict, res.Diags.Errors[0].Code)
	assert.Contains(t, res.Diags.Errors[0].Message, "Thing_destroy")

	// Both implicated types lose their artifacts: a failing run must not
	// leave colliding glue behind.
	assert.Empty(t, res.Manifest.Types)

	require.Len(t, res.Files, 1)
	assert.Equal(t, ManifestPath, res.Files[0].Path)
}

func TestManifestRenderIsDeterministic(t *testing.T) {
	m := &Manifest{
		Backend:  "go",
		Features: []string{"bigint"},
		Types: []ManifestType{{
			ID:      "calc.OpaqueStruct",
			Library: "calc",
			Kind:    "opaque",
			Unit:    "calc/OpaqueStruct.go",
			Glue:    "calc/OpaqueStruct.ffi.h",
			Symbols: []string{"OpaqueStruct_add_two", "OpaqueStruct_destroy"},
		}},
	}

	a, err := m.Render()
	require.NoError(t, err)

	b, err := m.Render()
	require.NoError(t, err)

	assert.Equal(t, ManifestPath, a.Path)
	assert.Equal(t, string(a.Content), string(b.Content))
	assert.Contains(t, string(a.Content), "OpaqueStruct_destroy")
}
