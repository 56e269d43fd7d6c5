package http1

import (
	"github.com/indigo-web/chunkedbody"
	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/http"
	"github.com/kestrel-http/kestrel/http/status"
	"github.com/kestrel-http/kestrel/transport"
	"io"
	"math"
)

type Body struct {
	plain         plainBodyReader
	chunked       chunkedBodyReader
	isChunked     bool
	contentLength int
}

func NewBody(
	client transport.Client, chunkedParser *chunkedbody.Parser, s config.Body,
) *Body {
	return &Body{
		plain:   newPlainBodyReader(client, s.MaxSize),
		chunked: newChunkedBodyReader(client, s.MaxSize, chunkedParser),
	}
}

func (b *Body) Init(request *http.Request) {
	b.isChunked = request.Chunked
	b.contentLength = request.ContentLength
	if b.isChunked {
		b.chunked.init(request)
	} else {
		b.plain.init(request)
	}
}

func (b *Body) Retrieve() ([]byte, error) {
	var (
		piece []byte
		err   error
	)

	if b.isChunked {
		piece, err = b.chunked.read()
	} else {
		piece, err = b.plain.read()
	}

	return piece, err
}

type plainBodyReader struct {
	client                transport.Client
	maxBodyLen, bytesLeft uint64
}

func newPlainBodyReader(client transport.Client, maxBodyLen uint64) plainBodyReader {
	return plainBodyReader{
		client:     client,
		maxBodyLen: maxBodyLen,
	}
}

func (p *plainBodyReader) init(request *http.Request) {
	p.bytesLeft = uint64(request.ContentLength)
}

func (p *plainBodyReader) read() (body []byte, err error) {
	if p.bytesLeft == 0 {
		return nil, io.EOF
	}

	data, err := p.client.Read()
	if err != nil {
		return nil, err
	}

	if p.bytesLeft > p.maxBodyLen {
		return nil, status.ErrBodyTooLarge
	}

	if dataLen := uint64(len(data)); dataLen >= p.bytesLeft {
		body, data = data[:p.bytesLeft], data[p.bytesLeft:]
		p.client.Pushback(data)
		p.bytesLeft = 0
		err = io.EOF
	} else {
		p.bytesLeft -= dataLen
		body = data
	}

	return body, err
}

type chunkedBodyReader struct {
	client               transport.Client
	maxBodyLen, received uint64
	hasTrailer           bool
	parser               *chunkedbody.Parser
}

func newChunkedBodyReader(client transport.Client, maxBodyLen uint64, parser *chunkedbody.Parser) chunkedBodyReader {
	return chunkedBodyReader{
		client:     client,
		maxBodyLen: maxBodyLen,
		parser:     parser,
	}
}

func (c *chunkedBodyReader) init(request *http.Request) {
	c.received = 0
	c.hasTrailer = request.HasTrailer
}

func (c *chunkedBodyReader) read() (body []byte, err error) {
	client := c.client
	data, err := client.Read()
	if err != nil {
		return nil, err
	}

	chunk, extra, err := c.parser.Parse(data, c.hasTrailer)
	switch err {
	case nil, io.EOF:
	default:
		return nil, err
	}

	received, overflows := adduint(c.received, uint64(len(chunk)))
	if overflows || received > c.maxBodyLen {
		return nil, status.ErrBodyTooLarge
	}

	c.received = received
	client.Pushback(extra)

	return chunk, err
}

func adduint(x, y uint64) (uint64, bool) {
	return x + y, math.MaxUint64-x < y
}
