package gen

import (
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ffigen/internal/abi"
	"ffigen/internal/attrs"
	"ffigen/internal/backend"
	"ffigen/internal/cglue"
	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
	"ffigen/internal/ownership"
	"ffigen/internal/registry"
	"ffigen/internal/typemap"
)

// Config parameterizes one generation run. Everything here arrives already
// resolved; the pipeline never consults flags, files or the environment.
type Config struct {
	Target  attrs.Target
	Backend backend.Backend

	// Jobs bounds per-type parallelism; 0 means GOMAXPROCS. Output is
	// byte-identical at any value.
	Jobs int

	Logger *zap.Logger
}

// Result is everything one run produced. Files holds the artifacts of every
// type that succeeded, in path order; Diags holds the aggregated outcome of
// the whole run, sorted.
type Result struct {
	Files    []backend.File
	Manifest *Manifest
	Diags    diagnostic.Diagnostics
}

// typeResult is the outcome of one type's trip through the pipeline.
// files is empty when the type failed or was disabled.
type typeResult struct {
	files []backend.File
	entry *ManifestType
	diags diagnostic.Diagnostics
}

// Run drives every type through filter, lower, plan and render, and
// aggregates the outcome. Per-type failures are collected, never raised:
// the run is inspected through Result.Diags.
func Run(reg *registry.Registry, cfg Config) *Result {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	res := &Result{}
	entries := reg.AllTypes()

	// Enablement is decided up front for every type, so that reference
	// checks inside the parallel phase read an immutable set.
	enabled := make(map[ir.TypeID]bool, len(entries))

	for _, e := range entries {
		decision, err := attrs.Evaluate(e.Def.Attrs, cfg.Target)
		if err != nil {
			res.Diags.AddError(diagnostic.CodeAttributeResolution, e.ID.String(), "", err.Error())
			continue
		}

		if !decision.Enabled {
			res.Diags.AddInfo(diagnostic.CodeDisabledByAttribute, e.ID.String(), "", decision.Reason())
			continue
		}

		enabled[e.ID] = true
	}

	logger.Debug("enablement resolved",
		zap.String("backend", cfg.Target.Backend),
		zap.Int("types", len(entries)),
		zap.Int("enabled", len(enabled)))

	results := make([]*typeResult, len(entries))

	var g errgroup.Group

	g.SetLimit(jobs)

	for i, e := range entries {
		if !enabled[e.ID] {
			continue
		}

		g.Go(func() error {
			results[i] = processType(reg, cfg, enabled, e)
			return nil
		})
	}

	// Workers only fill their own slot and never return an error.
	_ = g.Wait()

	res.Manifest = &Manifest{
		Backend:  cfg.Target.Backend,
		Features: cfg.Target.Features.Names(),
	}

	for _, tr := range results {
		if tr == nil {
			continue
		}

		res.Diags.Merge(tr.diags)

		if tr.entry == nil {
			continue
		}

		res.Files = append(res.Files, tr.files...)
		res.Manifest.Types = append(res.Manifest.Types, *tr.entry)
	}

	checkSymbolUniqueness(res)

	// Preludes and support only for the libraries that kept at least one
	// unit after the run-level checks.
	libs := make(map[string]struct{})

	for _, mt := range res.Manifest.Types {
		libs[mt.Library] = struct{}{}
	}

	for _, lib := range sortedKeys(libs) {
		res.Files = append(res.Files, cglue.Prelude(lib))
	}

	support, err := cfg.Backend.Support(sortedKeys(libs))
	if err != nil {
		res.Diags.AddError(abi.CodeOf(err), "", "", err.Error())
	}

	res.Files = append(res.Files, support...)

	if mf, err := res.Manifest.Render(); err != nil {
		res.Diags.AddError(diagnostic.CodeEmit, "", "", err.Error())
	} else {
		res.Files = append(res.Files, mf)
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	res.Diags.Sort()

	logger.Info("generation finished",
		zap.Int("types", len(res.Manifest.Types)),
		zap.Int("files", len(res.Files)),
		zap.Int("errors", len(res.Diags.Errors)))

	return res
}

// processType runs the linear pipeline of one enabled type. There is no
// retry and no resumption: any stage failure fails the type, and the
// failure is visible only through the returned diagnostics.
func processType(reg *registry.Registry, cfg Config, enabled map[ir.TypeID]bool, e registry.Entry) *typeResult {
	tr := &typeResult{}

	methods, ok := filterMethods(cfg.Target, e, &tr.diags)
	if !ok {
		return tr
	}

	if !checkReferences(reg, enabled, e, methods, &tr.diags) {
		return tr
	}

	tabi := abi.LowerType(reg, e.Def, methods, &tr.diags)
	if tabi == nil {
		return tr
	}

	own := ownership.PlanType(e.Def, methods, &tr.diags)
	if own == nil {
		return tr
	}

	sigs, fieldMaps, ok := mapBoundary(reg, cfg.Backend.Dialect(), e, methods, &tr.diags)
	if !ok {
		return tr
	}

	unit := &backend.TypeUnit{
		Def:       e.Def,
		Methods:   methods,
		ABI:       tabi,
		Own:       own,
		Reg:       reg,
		Target:    cfg.Target,
		Sigs:      sigs,
		FieldMaps: fieldMaps,
	}

	host, err := cfg.Backend.Render(unit)
	if err != nil {
		tr.diags.AddError(abi.CodeOf(err), e.ID.String(), "", err.Error())
		return tr
	}

	glue, err := cglue.Header(reg, e.Def, methods, tabi, own)
	if err != nil {
		tr.diags.AddError(abi.CodeOf(err), e.ID.String(), "", err.Error())
		return tr
	}

	tr.files = []backend.File{host, glue}
	tr.entry = &ManifestType{
		ID:      e.ID.String(),
		Library: e.ID.Library,
		Kind:    e.Def.Kind.String(),
		Unit:    host.Path,
		Glue:    glue.Path,
		Symbols: tabi.Symbols(),
	}

	return tr
}

// filterMethods evaluates the attribute state of every declared method.
// Disabled methods are recorded as info and dropped; a contradictory spec
// fails the type.
func filterMethods(target attrs.Target, e registry.Entry, diags *diagnostic.Diagnostics) ([]ir.MethodDef, bool) {
	methods := make([]ir.MethodDef, 0, len(e.Def.Methods))
	ok := true

	for _, m := range e.Def.Methods {
		decision, err := attrs.Evaluate(m.Attrs, target)
		if err != nil {
			diags.AddError(diagnostic.CodeAttributeResolution, e.ID.String(), m.Name, err.Error())

			ok = false

			continue
		}

		if !decision.Enabled {
			diags.AddInfo(diagnostic.CodeDisabledByAttribute, e.ID.String(), m.Name, decision.Reason())
			continue
		}

		methods = append(methods, m)
	}

	return methods, ok
}

// checkReferences verifies that every type an enabled declaration mentions
// is itself enabled for this target. A reference into a disabled type is a
// configuration error, never a silent omission: emitting the unit anyway
// would name a type or symbol that does not exist in this backend's output.
// Struct fields are checked alongside method signatures; a method-less
// struct can still smuggle a disabled type in through a field.
func checkReferences(reg *registry.Registry, enabled map[ir.TypeID]bool, e registry.Entry, methods []ir.MethodDef, diags *diagnostic.Diagnostics) bool {
	ok := true

	flag := func(method, context string, id ir.TypeID) {
		if enabled[id] {
			return
		}

		code := diagnostic.CodeUnresolvedTypeReference

		msg := context + "references " + id.String() + ", which is disabled for this backend"
		if !reg.Has(id) {
			code = diagnostic.CodeUnknownTypeID
			msg = context + "references undefined type " + id.String()
		}

		diags.AddError(code, e.ID.String(), method, msg)

		ok = false
	}

	for fi := range e.Def.Fields {
		f := &e.Def.Fields[fi]

		for _, id := range f.Type.ReferencedIDs(nil) {
			flag("", "field \""+f.Name+"\" ", id)
		}
	}

	for i := range methods {
		m := &methods[i]

		for _, id := range m.ReferencedIDs() {
			flag(m.Name, "", id)
		}
	}

	return ok
}

// mapBoundary pairs every declared crossing of one type with its host and
// native forms through the backend's dialect, the table Render consumes.
func mapBoundary(reg *registry.Registry, d typemap.Dialect, e registry.Entry, methods []ir.MethodDef, diags *diagnostic.Diagnostics) ([]typemap.Signature, []typemap.Mapping, bool) {
	ok := true

	fieldMaps, err := typemap.MapFields(reg, d, e.ID, e.Def.Fields)
	if err != nil {
		diags.AddError(abi.CodeOf(err), e.ID.String(), "", err.Error())

		ok = false
	}

	sigs := make([]typemap.Signature, len(methods))

	for i := range methods {
		sig, err := typemap.MapSignature(reg, d, e.ID, &methods[i])
		if err != nil {
			diags.AddError(abi.CodeOf(err), e.ID.String(), methods[i].Name, err.Error())

			ok = false

			continue
		}

		sigs[i] = sig
	}

	if !ok {
		return nil, nil, false
	}

	return sigs, fieldMaps, true
}

// checkSymbolUniqueness rejects cross-type symbol collisions. Per-owner
// collisions are caught during lowering; this is the run-level pass over
// everything that survived. Every type implicated in a collision loses its
// artifacts and its manifest entry: a failing run must not leave colliding
// glue behind.
func checkSymbolUniqueness(res *Result) {
	owners := make(map[string]string)
	bad := make(map[string]bool)

	for _, mt := range res.Manifest.Types {
		for _, sym := range mt.Symbols {
			if prev, dup := owners[sym]; dup {
				res.Diags.AddErrorf(diagnostic.CodeNamingConflict, mt.ID, "",
					"symbol %q is also generated for %s", sym, prev)

				bad[mt.ID] = true
				bad[prev] = true

				continue
			}

			owners[sym] = mt.ID
		}
	}

	if len(bad) == 0 {
		return
	}

	dropped := make(map[string]bool, 2*len(bad))
	kept := res.Manifest.Types[:0]

	for _, mt := range res.Manifest.Types {
		if bad[mt.ID] {
			dropped[mt.Unit] = true
			dropped[mt.Glue] = true

			continue
		}

		kept = append(kept, mt)
	}

	res.Manifest.Types = kept

	files := res.Files[:0]

	for _, f := range res.Files {
		if !dropped[f.Path] {
			files = append(files, f)
		}
	}

	res.Files = files
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
