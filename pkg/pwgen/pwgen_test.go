package pwgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("generates requested length from the alphabet", func(t *testing.T) {
		pw := New(20)
		require.Len(t, pw, 20)
		for _, r := range pw {
			require.True(t, strings.ContainsRune(Alphabet, r))
		}
	})

	t.Run("non-positive lengths fall back to the default", func(t *testing.T) {
		require.Len(t, New(0), DefaultLength)
		require.Len(t, New(-5), DefaultLength)
	})

	t.Run("successive passwords differ", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 50 {
			pw := New(DefaultLength)
			require.False(t, seen[pw], "duplicate password generated")
			seen[pw] = true
		}
	})
}
