// Package inbuilt provides a router.Router implementation with static and dynamic routing,
// per-method dispatch, middlewares and customizable error handlers, built on a radix tree.
package inbuilt

import (
	stdhttp "net/http"

	"github.com/kestrel-http/kestrel/http"
	"github.com/kestrel-http/kestrel/http/method"
	"github.com/kestrel-http/kestrel/http/status"
	"github.com/kestrel-http/kestrel/kv"
	"github.com/kestrel-http/kestrel/router/inbuilt/internal/radix"
)

// Handler processes a single request and builds the response.
type Handler func(request *http.Request) *http.Response

// ErrorHandler builds a response for a terminal error condition.
type ErrorHandler func(request *http.Request, err error) *http.Response

// Middleware wraps a Handler, usually calling next somewhere in its body.
type Middleware func(next Handler) Handler

type methodTable [method.Count + 1]Handler

// Router is a built-in router.Router implementation. The zero value is not usable; construct
// one with NewRouter.
type Router struct {
	tree        *radix.Node[methodTable]
	middlewares []Middleware
	errHandlers map[status.Code]ErrorHandler
	defaultErr  ErrorHandler
}

// NewRouter constructs an empty Router.
func NewRouter() *Router {
	return &Router{
		tree:        radix.New[methodTable](),
		errHandlers: make(map[status.Code]ErrorHandler),
		defaultErr:  defaultErrorHandler,
	}
}

// Use appends middlewares, applied in registration order around every handler registered
// afterward. Routes registered before a Use call are not wrapped by it.
func (r *Router) Use(middlewares ...Middleware) *Router {
	r.middlewares = append(r.middlewares, middlewares...)
	return r
}

// Route registers a handler for the given method and path template. Path templates use
// ":name" to mark a dynamic segment, populated into request.Vars at dispatch time.
func (r *Router) Route(m method.Method, path string, handler Handler) *Router {
	for _, mw := range r.middlewares {
		handler = mw(handler)
	}

	table, found := r.tree.Lookup(path, kv.New())
	if !found {
		table = methodTable{}
	}
	table[m] = handler

	if err := r.tree.Insert(path, table); err != nil {
		panic(err)
	}

	return r
}

func (r *Router) Get(path string, handler Handler) *Router     { return r.Route(method.GET, path, handler) }
func (r *Router) Head(path string, handler Handler) *Router    { return r.Route(method.HEAD, path, handler) }
func (r *Router) Post(path string, handler Handler) *Router    { return r.Route(method.POST, path, handler) }
func (r *Router) Put(path string, handler Handler) *Router     { return r.Route(method.PUT, path, handler) }
func (r *Router) Patch(path string, handler Handler) *Router   { return r.Route(method.PATCH, path, handler) }
func (r *Router) Delete(path string, handler Handler) *Router  { return r.Route(method.DELETE, path, handler) }
func (r *Router) Options(path string, handler Handler) *Router { return r.Route(method.OPTIONS, path, handler) }

// Catch registers a handler invoked whenever OnError is asked to render a particular status
// code. Use status.Code(0) (status.CloseConnection) only for codes that can actually occur.
func (r *Router) Catch(code status.Code, handler ErrorHandler) *Router {
	r.errHandlers[code] = handler
	return r
}

// OnRequest implements router.Router.
func (r *Router) OnRequest(request *http.Request) *http.Response {
	table, found := r.tree.Lookup(request.Path, request.Vars)
	if !found {
		return http.Respond(request).Code(status.NotFound)
	}

	handler := table[request.Method]
	if handler == nil {
		// HEAD falls back to the GET handler, discarding the body the serializer would
		// otherwise write - net/http does the same via its ServeMux.
		if request.Method == method.HEAD {
			handler = table[method.GET]
		}

		if handler == nil {
			return http.Respond(request).Code(status.MethodNotAllowed)
		}
	}

	return handler(request)
}

// OnError implements router.Router.
func (r *Router) OnError(request *http.Request, err error) *http.Response {
	code := status.ErrCode(err)

	if handler, ok := r.errHandlers[code]; ok {
		return handler(request, err)
	}

	return r.defaultErr(request, err)
}

func defaultErrorHandler(request *http.Request, err error) *http.Response {
	code := status.ErrCode(err)
	if code == status.CloseConnection {
		return nil
	}

	return http.Respond(request).Code(code).String(stdhttp.StatusText(int(code)))
}
