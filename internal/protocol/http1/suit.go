package http1

import (
	"bytes"

	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/http"
	"github.com/kestrel-http/kestrel/http/proto"
	"github.com/kestrel-http/kestrel/http/status"
	"github.com/kestrel-http/kestrel/internal/buffer"
	"github.com/kestrel-http/kestrel/internal/codecutil"
	"github.com/kestrel-http/kestrel/internal/construct"
	"github.com/kestrel-http/kestrel/router"
	"github.com/kestrel-http/kestrel/transport"
)

var crlfcrlf = []byte("\r\n\r\n")

// Suit bundles a preamble parser and a response serializer around a single connection,
// driving the request/response cycle until the connection is closed or hijacked.
type Suit struct {
	*Parser
	*serializer
	router router.Router
	client transport.Client
}

func New(
	cfg *config.Config,
	r router.Router,
	client transport.Client,
	request *http.Request,
	requestLineBuff, headersBuff *buffer.Buffer,
	codecs codecutil.Cache,
	respBuff []byte,
) *Suit {
	return &Suit{
		Parser:     NewParser(cfg, request, requestLineBuff, headersBuff),
		serializer: newSerializer(cfg, request, client, codecs, respBuff),
		router:     r,
		client:     client,
	}
}

// Initialize is the same constructor as just New, but derives the buffers, codec cache and
// response buffer from cfg instead of asking the caller to build them.
func Initialize(cfg *config.Config, r router.Router, client transport.Client, req *http.Request) *Suit {
	headersBuff, requestLineBuff := construct.Buffers(cfg)
	respBuff := make([]byte, 0, cfg.HTTP.ResponseBuffSize)

	return New(cfg, r, client, req, requestLineBuff, headersBuff, construct.Codecs(), respBuff)
}

// ServeOnce processes a single request/response cycle and returns, instead of looping until
// the connection closes. Used by tests that drive a connection step by step.
func (s *Suit) ServeOnce() bool {
	return s.serve(true)
}

// Serve drives the connection until it's closed, hijacked, or a fatal error occurs.
func (s *Suit) Serve() {
	s.serve(false)
}

func (s *Suit) serve(once bool) (ok bool) {
	req := s.Parser.request
	client := s.client

	for {
		data, err := client.Read()
		if err != nil {
			// a read error most likely means the deadline has been exceeded. Just notify
			// the router and bail out.
			s.router.OnError(req, status.ErrCloseConnection)
			return false
		}

		done, extra, err := s.Parse(data)
		if !done {
			// not enough data yet to complete the preamble; go read more.
			continue
		}

		if err != nil {
			// the connection is going down regardless, so socket errors while writing the
			// error response are of no further concern.
			s.Parser.cfg.NET.Instrumenter.BadRequest()
			resp := notNil(req, s.router.OnError(req, err))
			if writeErr := s.Write(req.Protocol, resp); writeErr != nil {
				return false
			}

			leftover, resynced := s.resync(data)
			if !resynced {
				return false
			}

			s.Parser.cleanup()
			req.Reset()
			client.Pushback(leftover)
			continue
		}

		if req.Chunked {
			s.Parser.cfg.NET.Instrumenter.ChunkedRequest()
		}

		version := req.Protocol
		if req.Upgrade != proto.Unknown && proto.HTTP1&req.Upgrade == req.Upgrade {
			s.serializer.Upgrade()
			version = req.Upgrade
		}

		client.Pushback(extra)
		req.Body.Init(req)
		resp := func() (resp *http.Response) {
			// a panicking handler is answered with a 500 and an empty body
			defer func() {
				if recover() != nil {
					resp = http.Respond(req).Code(status.InternalServerError)
				}
			}()

			return notNil(req, s.router.OnRequest(req))
		}()

		if req.Hijacked() {
			// the handler took over the connection; we must not touch it anymore.
			return false
		}

		if err = s.Write(version, resp); err != nil {
			// if writing the response failed, there's no point in attempting anything else.
			s.router.OnError(req, status.ErrCloseConnection)
			return false
		}
		s.Parser.cfg.NET.Instrumenter.WroteResponse()

		if err = req.Body.Reset(); err != nil {
			// Body.Reset() can only fail due to a read error while discarding a leftover body.
			s.router.OnError(req, status.ErrCloseConnection)
			return false
		}
		req.Reset()

		if once {
			return true
		}
	}
}

// resync scans for the next CRLFCRLF terminator, pulling further reads from the client if the
// one already in hand doesn't contain one, and returns whatever follows it so a well-formed
// request can still be parsed off the same connection after a malformed preamble. It gives up
// once the scanned window exceeds the configured header space, mirroring the preamble size limit
// the parser itself enforces, rather than buffering an attacker's stream forever.
func (s *Suit) resync(data []byte) (leftover []byte, ok bool) {
	buff := append([]byte(nil), data...)

	for {
		if i := bytes.Index(buff, crlfcrlf); i != -1 {
			return buff[i+len(crlfcrlf):], true
		}

		if len(buff) >= s.Parser.cfg.Headers.Space.Maximal {
			return nil, false
		}

		more, err := s.client.Read()
		if err != nil {
			return nil, false
		}

		buff = append(buff, more...)
	}
}

func notNil(req *http.Request, resp *http.Response) *http.Response {
	if resp != nil {
		return resp
	}

	return http.Respond(req)
}
