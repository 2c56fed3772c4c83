package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomString(t *testing.T) {
	for _, length := range []int{4, 8, 16} {
		s, err := NewRandomString(length)
		require.NoError(t, err)
		assert.Len(t, s, length)
		for _, ch := range s {
			assert.True(t, strings.ContainsRune(Alphabet, ch), "unexpected character %q", ch)
		}
	}
}

func TestNewRandomString_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		s, err := NewRandomString(10)
		require.NoError(t, err)
		assert.False(t, seen[s], "duplicate alias %s", s)
		seen[s] = true
	}
}

func TestNewRandomString_InvalidLength(t *testing.T) {
	_, err := NewRandomString(0)
	assert.Error(t, err)
}
