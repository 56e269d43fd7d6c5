package http

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponse(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		response := NewResponse()
		m := []int{1, 2, 3}
		resp, err := response.TryJSON(m)
		require.NoError(t, err)

		fields := resp.Expose()
		body, err := io.ReadAll(fields.Stream)
		require.NoError(t, err)
		require.Equal(t, "[1,2,3]", string(body))
		require.Equal(t, "application/json", fields.ContentType)
	})
}
