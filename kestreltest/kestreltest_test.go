package kestreltest

import (
	"testing"

	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/http"
	"github.com/kestrel-http/kestrel/router/simple"
	"github.com/stretchr/testify/require"
)

func TestServe(t *testing.T) {
	cfg := config.Default()

	r := simple.New(func(request *http.Request) *http.Response {
		return request.Respond().String("hello")
	}, func(request *http.Request, err error) *http.Response {
		return request.Respond().Error(err)
	})

	written := Serve(cfg, r, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")

	require.Contains(t, written, "200 OK")
	require.Contains(t, written, "hello")
}
