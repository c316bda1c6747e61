package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateLogin(t *testing.T) {
	t.Parallel()

	nothingTaken := func(ctx context.Context, login string) (bool, error) {
		return false, nil
	}

	t.Run("base candidate when free", func(t *testing.T) {
		login, err := AllocateLogin(context.Background(), "Ada", "Lovelace", nothingTaken)
		require.NoError(t, err)
		require.Equal(t, "AdaLovelace", login)
	})

	t.Run("strips non-alphanumeric runes", func(t *testing.T) {
		login, err := AllocateLogin(context.Background(), "Mary-Jane", "O'Brien", nothingTaken)
		require.NoError(t, err)
		require.Equal(t, "MaryJaneOBrien", login)
	})

	t.Run("first numbered candidate on collision", func(t *testing.T) {
		takenLogins := map[string]bool{"JaneDoe": true}
		login, err := AllocateLogin(context.Background(), "Jane", "Doe",
			func(ctx context.Context, login string) (bool, error) {
				return takenLogins[login], nil
			})
		require.NoError(t, err)
		require.Equal(t, "JaneDoe1", login)
	})

	t.Run("skips a run of collisions", func(t *testing.T) {
		takenLogins := map[string]bool{
			"JaneDoe": true, "JaneDoe1": true, "JaneDoe2": true, "JaneDoe3": true,
		}
		login, err := AllocateLogin(context.Background(), "Jane", "Doe",
			func(ctx context.Context, login string) (bool, error) {
				return takenLogins[login], nil
			})
		require.NoError(t, err)
		require.Equal(t, "JaneDoe4", login)
	})

	t.Run("exhausts after 99 numbered candidates", func(t *testing.T) {
		var probes []string
		_, err := AllocateLogin(context.Background(), "Jane", "Doe",
			func(ctx context.Context, login string) (bool, error) {
				probes = append(probes, login)
				return true, nil
			})
		require.ErrorIs(t, err, ErrAllocationExhausted)

		// Base plus suffixes 1..99, probed in order.
		require.Len(t, probes, 100)
		require.Equal(t, "JaneDoe", probes[0])
		require.Equal(t, "JaneDoe1", probes[1])
		require.Equal(t, "JaneDoe99", probes[99])
	})

	t.Run("lookup errors abort immediately", func(t *testing.T) {
		calls := 0
		_, err := AllocateLogin(context.Background(), "Jane", "Doe",
			func(ctx context.Context, login string) (bool, error) {
				calls++
				return false, context.DeadlineExceeded
			})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 1, calls)
	})
}

func TestLoginBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		first, last, want string
	}{
		{"Ada", "Lovelace", "AdaLovelace"},
		{"Mary Jane", "Watson-Parker", "MaryJaneWatsonParker"},
		{"Jean-Luc", "Picard", "JeanLucPicard"},
		{"X", "Æ A-12", "XÆA12"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, loginBase(tt.first, tt.last))
	}
}
