package response

import (
	"io"

	"github.com/kestrel-http/kestrel/http/cookie"
	"github.com/kestrel-http/kestrel/http/mime"
	"github.com/kestrel-http/kestrel/http/status"
	"github.com/kestrel-http/kestrel/kv"
)

const DefaultContentType = mime.HTML

// Fields is the plain-data side of a Response, exposed to the serializer via Expose().
// StreamSize of -1 means the stream's length is unknown upfront and chunked transfer
// encoding must be used; 0 renders an empty, Content-Length: 0 body without touching Stream.
type Fields struct {
	Stream           io.Reader
	Status           status.Status
	ContentType      string
	Charset          string
	ContentEncoding  string
	TransferEncoding string
	Headers          []kv.Pair
	Cookies          []cookie.Cookie
	StreamSize       int64
	Code             status.Code
}

func (f Fields) Clear() Fields {
	f.Code = status.OK
	f.Status = ""
	f.ContentType = DefaultContentType
	f.Charset = mime.Unset
	f.ContentEncoding = ""
	f.TransferEncoding = ""
	f.Headers = f.Headers[:0]
	f.Cookies = f.Cookies[:0]
	f.Stream = nil
	f.StreamSize = 0

	return f
}
