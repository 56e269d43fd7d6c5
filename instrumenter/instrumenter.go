// Package instrumenter exposes a small observer interface for the operational events a running
// server produces, without pulling in any particular metrics backend.
package instrumenter

import "sync/atomic"

// Instrumenter is notified of operational events on the request hot path. Implementations must
// be safe for concurrent use, since every connection's worker calls into it independently.
type Instrumenter interface {
	// AcceptedConnection is called once per accepted TCP/TLS connection.
	AcceptedConnection()
	// BadRequest is called whenever the preamble parser rejects a request.
	BadRequest()
	// ServerStarted is called once every bound listener is accepting connections.
	ServerStarted()
	// WroteResponse is called after a response has been fully flushed onto the connection.
	WroteResponse()
	// ChunkedRequest is called when a request's body uses chunked transfer encoding.
	ChunkedRequest()
	// ChunkedResponse is called when a response is framed with chunked transfer encoding.
	ChunkedResponse()
	// PoolSaturated is called when the worker pool had no free capacity and a connection was
	// run inline on the accepting goroutine instead.
	PoolSaturated()
}

var _ Instrumenter = Noop{}
var _ Instrumenter = new(Atomic)

// Noop is the zero-cost default Instrumenter; every method is a no-op and inlines away.
type Noop struct{}

func (Noop) AcceptedConnection() {}
func (Noop) BadRequest()         {}
func (Noop) ServerStarted()      {}
func (Noop) WroteResponse()      {}
func (Noop) ChunkedRequest()     {}
func (Noop) ChunkedResponse()    {}
func (Noop) PoolSaturated()      {}

// Atomic counts every event with sync/atomic counters. Safe for concurrent use.
type Atomic struct {
	acceptedConnections atomic.Uint64
	badRequests         atomic.Uint64
	serverStarts        atomic.Uint64
	wroteResponses      atomic.Uint64
	chunkedRequests     atomic.Uint64
	chunkedResponses    atomic.Uint64
	poolSaturations     atomic.Uint64
}

func (a *Atomic) AcceptedConnection() { a.acceptedConnections.Add(1) }
func (a *Atomic) BadRequest()         { a.badRequests.Add(1) }
func (a *Atomic) ServerStarted()      { a.serverStarts.Add(1) }
func (a *Atomic) WroteResponse()      { a.wroteResponses.Add(1) }
func (a *Atomic) ChunkedRequest()     { a.chunkedRequests.Add(1) }
func (a *Atomic) ChunkedResponse()    { a.chunkedResponses.Add(1) }
func (a *Atomic) PoolSaturated()      { a.poolSaturations.Add(1) }

// Snapshot is a point-in-time copy of every counter an Atomic instrumenter tracks.
type Snapshot struct {
	AcceptedConnections uint64
	BadRequests         uint64
	ServerStarts        uint64
	WroteResponses      uint64
	ChunkedRequests     uint64
	ChunkedResponses    uint64
	PoolSaturations     uint64
}

// Snapshot reads every counter without resetting them.
func (a *Atomic) Snapshot() Snapshot {
	return Snapshot{
		AcceptedConnections: a.acceptedConnections.Load(),
		BadRequests:         a.badRequests.Load(),
		ServerStarts:        a.serverStarts.Load(),
		WroteResponses:      a.wroteResponses.Load(),
		ChunkedRequests:     a.chunkedRequests.Load(),
		ChunkedResponses:    a.chunkedResponses.Load(),
		PoolSaturations:     a.poolSaturations.Load(),
	}
}
