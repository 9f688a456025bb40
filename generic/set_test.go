package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAddRemove(t *testing.T) {
	assert := assert.New(t)
	s := NewSet[string]()
	assert.True(s.Add("a"))
	assert.False(s.Add("a"))
	assert.True(s.Contains("a"))
	assert.Equal(1, s.Count())
	assert.True(s.Remove("a"))
	assert.False(s.Remove("a"))
	assert.Equal(0, s.Count())
}

func TestSetContainsMany(t *testing.T) {
	assert := assert.New(t)
	s := NewSet(1, 2, 3)
	assert.True(s.Contains(1, 2))
	assert.False(s.Contains(1, 4))
}

func TestSetToSlice(t *testing.T) {
	assert := assert.New(t)
	s := NewSet("x", "y")
	assert.ElementsMatch([]string{"x", "y"}, s.ToSlice())
	s.Clear()
	assert.Empty(s.ToSlice())
}

func TestResultParts(t *testing.T) {
	a := assert.New(t)
	v, err := Ok(42).Parts()
	a.NoError(err)
	a.Equal(42, v)
	_, err = Err[int](assert.AnError).Parts()
	a.ErrorIs(err, assert.AnError)
}
