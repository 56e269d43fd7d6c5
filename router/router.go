package router

import "github.com/kestrel-http/kestrel/http"

// Router dispatches a fully parsed request to application code and produces the response to
// be serialized back onto the wire.
type Router interface {
	// OnRequest is called once a request's headers (and, if consumed, body) are ready. A nil
	// return value is treated as an empty 200 OK.
	OnRequest(request *http.Request) *http.Response
	// OnError is called instead of OnRequest whenever the connection-serving loop hits an
	// error (a parse error, a failed read such as a timeout, a failed write). After a parse
	// error the returned response is written and the loop goes on with the next request on
	// the same connection; in the other cases the returned response is not written and the
	// connection is closed.
	OnError(request *http.Request, err error) *http.Response
}
