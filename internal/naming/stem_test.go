package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStemSequence(t *testing.T) {
	s := NewStem("tmp", nil)

	assert.Equal(t, "tmp1", s.Next())
	assert.Equal(t, "tmp2", s.Next())
	assert.Equal(t, "tmp3", s.Next())
}

func TestStemSkipsTaken(t *testing.T) {
	ns := map[string]struct{}{
		"arg1": {},
		"arg3": {},
	}
	s := NewStem("arg", ns)

	assert.Equal(t, "arg2", s.Next())
	assert.Equal(t, "arg4", s.Next())
	assert.Equal(t, "arg5", s.Next())
}

func TestStemSharedNamespace(t *testing.T) {
	ns := make(map[string]struct{})
	a := NewStem("v", ns)
	b := NewStem("v", ns)

	assert.Equal(t, "v1", a.Next())

	// b sees v1 as taken through the shared namespace.
	assert.Equal(t, "v2", b.Next())
	assert.Equal(t, "v3", a.Next())
}
