package http1_test

import (
	"testing"

	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/http"
	"github.com/kestrel-http/kestrel/kestreltest"
	"github.com/kestrel-http/kestrel/router/simple"
	"github.com/stretchr/testify/require"
)

func TestSuit_ResyncAfterMalformedPreamble(t *testing.T) {
	cfg := config.Default()

	r := simple.New(func(request *http.Request) *http.Response {
		return request.Respond().String("recovered")
	}, func(request *http.Request, err error) *http.Response {
		return request.Respond().Error(err)
	})

	// an unsupported HTTP version is rejected as soon as the request line's CRLF is seen; the
	// blank line right after stands in for an empty (malformed) header block, exposing the
	// CRLFCRLF a resync can latch onto.
	malformed := "GET / HTTP/9.9\r\n\r\n"
	valid := "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"

	written := kestreltest.ServeConn(cfg, r, malformed+valid)

	require.Contains(t, written, "505")
	require.Contains(t, written, "200 OK")
	require.Contains(t, written, "recovered")
}
