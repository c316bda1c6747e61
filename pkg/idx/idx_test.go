package idx_test

import (
	"testing"
	"time"

	"github.com/microscopium/signup/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.NotEmpty(t, id.String())
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1M"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid)
	}
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)

	require.WithinDuration(t, tm, id.Time(), time.Millisecond)
}

func TestMonotonicWithinSameMillisecond(t *testing.T) {
	tm := time.Unix(3, 0).UTC()

	a := idx.NewAt(tm)
	b := idx.NewAt(tm)
	require.Less(t, a.String(), b.String())
}
