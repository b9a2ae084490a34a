// Package gen is the output emitter: it drives every enabled type through
// the linear filter, lower, plan, render pipeline, collects per-type
// failures without halting, and assembles the run's artifacts (host units,
// glue headers, support files and the manifest) deterministically.
//
// Types are independent, so the pipeline fans out across an errgroup as a
// pure optimization; results land in per-type slots and are aggregated in
// registry order, making the output byte-identical at any parallelism.
package gen
