package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayScan(t *testing.T) {
	t.Run("nil value", func(t *testing.T) {
		var a StringArray
		require.NoError(t, a.Scan(nil))
		assert.Nil(t, a)
	})

	t.Run("empty array literal", func(t *testing.T) {
		var a StringArray
		require.NoError(t, a.Scan("{}"))
		assert.Equal(t, StringArray{}, a)
	})

	t.Run("values from string", func(t *testing.T) {
		var a StringArray
		require.NoError(t, a.Scan("{one,two,three}"))
		assert.Equal(t, StringArray{"one", "two", "three"}, a)
	})

	t.Run("values from bytes", func(t *testing.T) {
		var a StringArray
		require.NoError(t, a.Scan([]byte("{a,b}")))
		assert.Equal(t, StringArray{"a", "b"}, a)
	})
}

func TestStringArrayValue(t *testing.T) {
	t.Run("nil maps to NULL", func(t *testing.T) {
		var a StringArray
		v, err := a.Value()
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("empty array literal", func(t *testing.T) {
		v, err := StringArray{}.Value()
		require.NoError(t, err)
		assert.Equal(t, "{}", v)
	})

	t.Run("joined values", func(t *testing.T) {
		v, err := StringArray{"x", "y"}.Value()
		require.NoError(t, err)
		assert.Equal(t, "{x,y}", v)
	})
}

func TestStringArrayContains(t *testing.T) {
	a := StringArray{"alpha", "beta"}
	assert.True(t, a.Contains("alpha"))
	assert.False(t, a.Contains("gamma"))
	assert.False(t, StringArray(nil).Contains("alpha"))
}
