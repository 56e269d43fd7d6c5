package http

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/kestrel-http/kestrel/http/cookie"
	"github.com/kestrel-http/kestrel/http/mime"
	"github.com/kestrel-http/kestrel/http/status"
	"github.com/kestrel-http/kestrel/internal/response"
	"github.com/kestrel-http/kestrel/internal/strutil"
	"github.com/kestrel-http/kestrel/kv"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

const (
	// why 7? I don't know. There's no theory behind this number nor researches.
	// It can be adjusted to 10 as well, but why you would ever need to do this?
	preallocRespHeaders = 7
	defaultFileMIME     = mime.OctetStream
)

type Response struct {
	fields *response.Fields
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK,
// pre-allocated space for response headers and text/html content-type.
// NOTE: it's recommended to use Request.Respond() method inside of handlers, if there's no
// clear reason otherwise
func NewResponse() *Response {
	return &Response{
		fields: &response.Fields{
			Code:        status.OK,
			Headers:     make([]kv.Pair, 0, preallocRespHeaders),
			ContentType: response.DefaultContentType,
			Charset:     mime.Unset,
		},
	}
}

// Code sets a Response code and a corresponding status.
// In case of unknown code, "Unknown Status Code" will be set as a status
// code. In this case you should call Status explicitly
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// Status sets a custom status text. This text does not matter at all, and usually
// totally ignored by client, so there is actually no reasons to use this except some
// rare cases when you need to represent a Response status text somewhere
func (r *Response) Status(status status.Status) *Response {
	r.fields.Status = status
	return r
}

// ContentType sets a custom Content-Type header value.
func (r *Response) ContentType(value mime.MIME) *Response {
	r.fields.ContentType = value
	return r
}

// Charset sets the charset parameter appended to the Content-Type header.
func (r *Response) Charset(value mime.Charset) *Response {
	r.fields.Charset = value
	return r
}

// TransferEncoding sets a custom Transfer-Encoding header value.
func (r *Response) TransferEncoding(value string) *Response {
	r.fields.TransferEncoding = value
	return r
}

// Header sets header values to a key. In case it already exists the value will
// be appended.
func (r *Response) Header(key string, values ...string) *Response {
	if len(values) == 0 {
		return r
	}

	switch {
	case strutil.CmpFold(key, "content-type"):
		return r.ContentType(values[0])
	case strutil.CmpFold(key, "transfer-encoding"):
		return r.TransferEncoding(values[0])
	}

	for _, value := range values {
		r.fields.Headers = append(r.fields.Headers, kv.Pair{Key: key, Value: value})
	}

	return r
}

// Headers simply merges passed headers into Response by calling Header for every key with its
// values. The map itself isn't retained, so editing it afterwards doesn't affect Response
func (r *Response) Headers(headers map[string][]string) *Response {
	resp := r

	for k, v := range headers {
		resp = resp.Header(k, v...)
	}

	return resp
}

// String sets the response's body to the passed string
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to the passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Stream = bytes.NewReader(body)
	r.fields.StreamSize = int64(len(body))
	return r
}

// Stream sets an arbitrary reader as the response body. size is the exact number of bytes
// the reader will yield, or -1 if unknown upfront, in which case the body is sent with
// Transfer-Encoding: chunked.
func (r *Response) Stream(reader io.Reader, size int64) *Response {
	r.fields.Stream = reader
	r.fields.StreamSize = size
	return r
}

// TryFile tries to open a file for reading and returns a new Response streaming its contents.
func (r *Response) TryFile(path string) (*Response, error) {
	fd, err := os.Open(path)
	if err != nil {
		// if we can't open it, it doesn't exist
		return r, status.ErrNotFound
	}

	stat, err := fd.Stat()
	if err != nil {
		// ...and if we can't get stats on it, it exists, however something in system went wrong
		_ = fd.Close()
		return r, status.ErrInternalServerError
	}
	if stat.IsDir() {
		_ = fd.Close()
		return r, status.ErrNotFound
	}

	contentType := mime.Extension[filepath.Ext(path)]
	if len(contentType) == 0 {
		contentType = defaultFileMIME
	}

	return r.ContentType(contentType).Stream(fd, stat.Size()), nil
}

// File opens a file for reading and returns a new Response streaming it. If an error occurred,
// it is rendered via Error instead.
func (r *Response) File(path string) *Response {
	resp, err := r.TryFile(path)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Cookie adds cookies. They'll be later rendered as a set of Set-Cookie headers
func (r *Response) Cookie(cookies ...cookie.Cookie) *Response {
	r.fields.Cookies = append(r.fields.Cookies, cookies...)
	return r
}

// TryJSON receives a model and returns a new Response object and an error
func (r *Response) TryJSON(model any) (*Response, error) {
	var buff bytes.Buffer

	stream := json.ConfigDefault.BorrowStream(&buff)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)
	if err != nil {
		return r, err
	}

	return r.ContentType(mime.JSON).Bytes(buff.Bytes()), nil
}

// JSON does the same as TryJSON does, except returned error is being implicitly wrapped
// by Error
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Error returns a response builder with an error set. If passed err is nil, nothing will happen.
// If an instance of status.HTTPError is passed, error code will be automatically set. Custom
// codes can be passed, however only first will be used. By default, the error is
// status.ErrInternalServerError
func (r *Response) Error(err error, code ...status.Code) *Response {
	if err == nil {
		return r
	}

	c := status.ErrCode(err)
	if len(code) > 0 {
		// peek the first, ignore the rest
		c = code[0]
	}

	return r.
		Code(c).
		String(err.Error())
}

// Expose returns a struct with values, filled by the builder. Used mostly for internal purposes.
func (r *Response) Expose() *response.Fields {
	return r.fields
}

// Clear discards everything was done with Response object before
func (r *Response) Clear() *Response {
	*r.fields = r.fields.Clear()
	return r
}

// Respond is a predicate to request.Respond(). May be used as a dummy handler
func Respond(request *Request) *Response {
	return request.Respond()
}

// Code is a predicate to request.Respond().Code(...)
func Code(request *Request, code status.Code) *Response {
	return request.Respond().Code(code)
}

// String is a predicate to request.Respond().String(...)
func String(request *Request, str string) *Response {
	return request.Respond().String(str)
}

// Bytes is a predicate to request.Respond().Bytes(...)
func Bytes(request *Request, b []byte) *Response {
	return request.Respond().Bytes(b)
}

// File is a predicate to request.Respond().File(...)
func File(request *Request, path string) *Response {
	return request.Respond().File(path)
}

// JSON is a predicate to request.Respond().JSON(...)
func JSON(request *Request, model any) *Response {
	return request.Respond().JSON(model)
}

// Error is a predicate to request.Respond().Error(...)
//
// Error returns a response builder with an error set. If passed err is nil, nothing will happen.
// If an instance of status.HTTPError is passed, error code will be automatically set. Custom
// codes can be passed, however only first will be used. By default, the error is
// status.ErrInternalServerError
func Error(request *Request, err error, code ...status.Code) *Response {
	return request.Respond().Error(err, code...)
}
