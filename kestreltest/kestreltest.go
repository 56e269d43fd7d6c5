// Package kestreltest exposes an in-memory transport.Client (ported from the library's own
// circular-buffer mock client) so a router.Router can be exercised end to end without opening
// a real socket.
package kestreltest

import (
	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/internal/construct"
	"github.com/kestrel-http/kestrel/internal/protocol/http1"
	"github.com/kestrel-http/kestrel/router"
	"github.com/kestrel-http/kestrel/transport/dummy"
)

// Client is an in-memory transport.Client double. Reads replay the data it was constructed
// with; writes are journaled and retrievable via Written.
type Client = dummy.Client

// NewClient builds a Client that replays data on every Read call, looping back to the start
// once exhausted. Chain Once to make it return io.EOF instead, once.
func NewClient(data ...[]byte) *Client {
	return dummy.NewMockClient(data...)
}

// Serve drives a single request/response cycle through cfg and r using a single, already
// framed HTTP/1.1 request (request line, headers, and body all included in raw), and returns
// whatever bytes were written back onto the connection.
func Serve(cfg *config.Config, r router.Router, raw string) string {
	client := NewClient([]byte(raw)).Once()
	suit := newSuit(cfg, r, client)
	suit.ServeOnce()

	return client.Written()
}

// ServeConn drives a connection until it closes, replaying raw (which may contain more than one
// framed HTTP/1.1 request back to back) and returns everything written to it. Unlike Serve, this
// exercises the connection-level loop, so a malformed request followed by a well-formed one on
// the same connection produces two responses.
func ServeConn(cfg *config.Config, r router.Router, raw string) string {
	client := NewClient([]byte(raw)).Once()
	suit := newSuit(cfg, r, client)
	suit.Serve()

	return client.Written()
}

func newSuit(cfg *config.Config, r router.Router, client *Client) *http1.Suit {
	body := http1.NewBody(client, construct.Chunked(cfg.Body), cfg.Body)
	request := construct.Request(cfg, client, body)

	return http1.Initialize(cfg, r, client, request)
}
