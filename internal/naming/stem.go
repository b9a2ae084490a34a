package naming

import "strconv"

// NewStem creates a Stem that allocates names of the form stem1, stem2, …
// avoiding everything already present in namespace. A nil namespace means
// all names are free.
func NewStem(stem string, namespace map[string]struct{}) *Stem {
	return &Stem{
		taken: namespace,
		stem:  stem,
		last:  0,
	}
}

// Stem hands out unique derived identifiers within one namespace. Generated
// function bodies use it for marshaling temporaries so that emitted locals
// never shadow parameters.
type Stem struct {
	taken map[string]struct{}
	stem  string
	last  int
}

// Next returns the next free name and marks it taken.
func (s *Stem) Next() string {
	if s.taken == nil {
		s.taken = make(map[string]struct{})
	}

	for {
		s.last++
		name := s.stem + strconv.Itoa(s.last)

		if _, ok := s.taken[name]; !ok {
			s.taken[name] = struct{}{}
			return name
		}
	}
}
