package serve

import (
	"net"

	"github.com/dchest/uniuri"
	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/http/crypt"
	"github.com/kestrel-http/kestrel/internal/construct"
	"github.com/kestrel-http/kestrel/internal/protocol/http1"
	"github.com/kestrel-http/kestrel/router"
)

// HTTP1 setups and serves an HTTP/1.1 server until it stops. Note, that the connection isn't
// automatically closed on server stop
func HTTP1(cfg *config.Config, conn net.Conn, enc crypt.Encryption, r router.Router) {
	client := construct.Client(cfg.NET, conn)
	defer client.Close()
	body := http1.NewBody(client, construct.Chunked(cfg.Body), cfg.Body)
	request := construct.Request(cfg, client, body)
	request.Env.Encryption = enc
	request.Env.ConnectionID = uniuri.New()
	suit := http1.Initialize(cfg, r, client, request)
	suit.Serve()
}
