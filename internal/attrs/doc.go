// Package attrs evaluates resolved attribute rules against a generation
// target (backend identity plus active feature names) and decides whether a
// type or method is emitted.
//
// Evaluation is pure and total: same spec, same target, same decision. The
// default with no matching rule is enabled; among matching rules the last one
// in declaration order wins. A spec carrying two identical selectors with
// opposite effects is contradictory and refuses evaluation instead of
// silently picking a side.
package attrs
