package accept

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	t.Run("descending q-value", func(t *testing.T) {
		got := Values("gzip;q=0.8, br;q=0.9, deflate")
		require.Equal(t, []string{"deflate", "br", "gzip"}, got)
	})

	t.Run("no q-value defaults to 1.0", func(t *testing.T) {
		got := Values("gzip, br")
		require.Equal(t, []string{"gzip", "br"}, got)
	})

	t.Run("ties preserve arrival order", func(t *testing.T) {
		got := Values("gzip;q=0.5, br;q=0.5, deflate;q=0.5")
		require.Equal(t, []string{"gzip", "br", "deflate"}, got)
	})

	t.Run("invalid q defaults to 1.0", func(t *testing.T) {
		got := Values("gzip;q=nonsense, br;q=0.5")
		require.Equal(t, []string{"gzip", "br"}, got)
	})

	t.Run("empty value yields no tokens", func(t *testing.T) {
		require.Empty(t, Values(""))
	})
}
