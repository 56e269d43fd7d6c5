// Package simple provides a minimal router.Router implementation for applications that need a
// single handler and a single error handler instead of per-method dispatch. Routing and
// middleware frameworks remain out of scope; use router/inbuilt for those.
package simple

import (
	"github.com/kestrel-http/kestrel/http"
	rt "github.com/kestrel-http/kestrel/router"
)

type (
	// Handler processes every request the router receives.
	Handler func(*http.Request) *http.Response
	// ErrorHandler builds a response for a terminal error condition.
	ErrorHandler func(*http.Request, error) *http.Response
)

type simpleRouter struct {
	handler    Handler
	errHandler ErrorHandler
}

var _ rt.Router = simpleRouter{}

// New wraps handler and errHandler into a router.Router.
func New(handler Handler, errHandler ErrorHandler) rt.Router {
	return simpleRouter{
		handler:    handler,
		errHandler: errHandler,
	}
}

func (r simpleRouter) OnRequest(request *http.Request) *http.Response {
	return r.handler(request)
}

func (r simpleRouter) OnError(request *http.Request, err error) *http.Response {
	return r.errHandler(request, err)
}
