package construct

import (
	"net"

	"github.com/indigo-web/chunkedbody"
	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/http"
	"github.com/kestrel-http/kestrel/http/codec"
	"github.com/kestrel-http/kestrel/internal/buffer"
	"github.com/kestrel-http/kestrel/internal/codecutil"
	"github.com/kestrel-http/kestrel/kv"
	"github.com/kestrel-http/kestrel/transport"
)

// Chunked builds a chunked-body decoder honoring the configured chunk size ceiling.
func Chunked(body config.Body) *chunkedbody.Parser {
	settings := chunkedbody.DefaultSettings()
	settings.MaxChunkSize = body.MaxChunkSize

	return chunkedbody.NewParser(settings)
}

func Request(cfg *config.Config, client transport.Client, bodyReader http.Retriever) *http.Request {
	headers := kv.NewPrealloc(int(cfg.Headers.Number.Default))
	params := kv.NewPrealloc(cfg.URI.ParamsPrealloc)
	vars := kv.New()
	request := http.NewRequest(cfg, http.NewResponse(), client, headers, params, vars)
	request.Body = http.NewBody(request, bodyReader, cfg)

	return request
}

func Client(cfg config.NET, conn net.Conn) transport.Client {
	return transport.NewPooledClient(conn, cfg.ReadTimeout, cfg.ReadBufferSize)
}

func Buffers(s *config.Config) (headersBuff, statusBuff *buffer.Buffer) {
	hb := buffer.New(s.Headers.Space.Default, s.Headers.Space.Maximal)
	sb := buffer.New(s.URI.RequestLineSize.Default, s.URI.RequestLineSize.Maximal)

	return &hb, &sb
}

// Codecs builds the cache of content-coding implementations offered for both request body
// decoding and response compression.
func Codecs() codecutil.Cache {
	codecs := []codec.Codec{codec.NewGZIP(), codec.NewDeflate(), codec.NewZSTD()}

	return codecutil.NewCache(codecs, codecutil.AcceptEncoding(codecs))
}
