package http

import (
	"io"
	"testing"

	"github.com/kestrel-http/kestrel/config"
	"github.com/stretchr/testify/require"
)

// fakeRetriever feeds a fixed sequence of chunks, then io.EOF forever after.
type fakeRetriever struct {
	chunks [][]byte
	pos    int
}

func (f *fakeRetriever) Retrieve() ([]byte, error) {
	if f.pos >= len(f.chunks) {
		return nil, io.EOF
	}

	chunk := f.chunks[f.pos]
	f.pos++

	return chunk, nil
}

func TestBody(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		retriever := &fakeRetriever{chunks: [][]byte{[]byte("Hello, world!")}}
		request := &Request{cfg: config.Default()}
		b := NewBody(request, retriever, config.Default())

		buff := make([]byte, 12)
		n, err := b.Read(buff)
		require.NoError(t, err)
		require.Equal(t, "Hello, world", string(buff[:n]))
	})

	t.Run("bytes reads the whole body", func(t *testing.T) {
		retriever := &fakeRetriever{chunks: [][]byte{[]byte("foo"), []byte("bar")}}
		request := &Request{cfg: config.Default()}
		b := NewBody(request, retriever, config.Default())

		data, err := b.Bytes()
		require.NoError(t, err)
		require.Equal(t, "foobar", string(data))
	})
}
