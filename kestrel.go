// Package kestrel is an embeddable HTTP/1.1 server library: bind one or more transports (plain
// TCP, TLS) to addresses, attach a router.Router, and serve.
package kestrel

import (
	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/router"
	"github.com/kestrel-http/kestrel/router/inbuilt"
	"github.com/kestrel-http/kestrel/transport"
)

type bind struct {
	addr string
	t    Transport
}

// App binds transports to a router and drives them until stopped.
type App struct {
	cfg   *config.Config
	binds []bind
	sup   transport.Supervisor
	hooks hooks
}

// New constructs an App. A nil cfg falls back to config.Default().
func New(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}

	return &App{
		cfg: cfg,
		sup: transport.NewSupervisor(),
	}
}

// NotifyOnStart calls cb once every bound transport has started accepting connections.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls cb once every bound transport has stopped and all in-flight
// connections have finished.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Bind registers a transport (see TCP, TLS, HTTPS) to listen on addr. Binding doesn't open
// the socket immediately; that happens once Serve is called.
func (a *App) Bind(addr string, t Transport) *App {
	a.binds = append(a.binds, bind{addr: addr, t: t})
	return a
}

// Serve opens every bound transport's listener and blocks, dispatching connections to r, until
// Stop is called or a transport fails irrecoverably. A nil router falls back to an empty
// inbuilt.Router, which answers everything with 404.
func (a *App) Serve(r router.Router) error {
	if r == nil {
		r = inbuilt.NewRouter()
	}

	for _, b := range a.binds {
		if b.t.error != nil {
			return b.t.error
		}

		cb := b.t.spawnCallback(a.cfg, r)
		if err := a.sup.Add(b.addr, b.t.inner, cb); err != nil {
			return err
		}
	}

	a.cfg.NET.Instrumenter.ServerStarted()
	callIfNotNil(a.hooks.OnStart)
	err := a.sup.Run(a.cfg.NET)
	callIfNotNil(a.hooks.OnStop)

	return err
}

// Stop closes every listener, waits for in-flight connections to finish, then returns. Serve
// returns nil once Stop's effects are complete.
func (a *App) Stop() {
	a.sup.Stop()
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
