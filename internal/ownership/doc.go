// Package ownership derives the memory-ownership contract of generated
// bindings: which parameters transfer, which are loans for the duration of
// the call, what obligation a return places on the host wrapper, and the
// destructor every owned handle must eventually reach exactly once.
//
// The rules are classification, not enforcement. Double-destroy and
// use-after-transfer remain undefined behavior on the native side; what is
// validated here is the one contract the generator can prove statically:
// a returned view needs a live owner to anchor its lifetime, so borrowed
// returns are only legal on methods with a borrowed self.
package ownership
