package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Difference(t *testing.T) {
	s1 := New(1, 2, 3, 4)
	s2 := New(3, 4, 5, 6)

	assert.Equal(t, New(1, 2), s1.Difference(s2))
	assert.Equal(t, New(5, 6), s2.Difference(s1))
	assert.Empty(t, s1.Difference(s1))
}

func TestSet_Add(t *testing.T) {
	s := New[string]()
	s.Add("a")
	s.Add("a")

	assert.True(t, s.Has("a"))
	assert.Len(t, s, 1)
	assert.ElementsMatch(t, []string{"a"}, s.Values())
	assert.False(t, s.Has("b"))
}
