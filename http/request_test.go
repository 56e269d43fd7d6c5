package http

import (
	"errors"
	"testing"

	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/kv"
	"github.com/kestrel-http/kestrel/transport/dummy"
	"github.com/stretchr/testify/require"
)

func newTestRequest() *Request {
	cfg := config.Default()
	client := dummy.NewMockClient().Once()
	headers := kv.New()
	params := kv.New()
	vars := kv.New()

	return NewRequest(cfg, NewResponse(), client, headers, params, vars)
}

func TestRequest_Cookies(t *testing.T) {
	req := newTestRequest()
	req.Headers.Add("cookie", "name=value; lang=en")

	jar, err := req.Cookies()
	require.NoError(t, err)
	require.Equal(t, "value", jar.Value("name"))
	require.Equal(t, "en", jar.Value("lang"))
}

func TestRequest_Respond(t *testing.T) {
	req := newTestRequest()

	resp := req.Respond().String("hello")
	require.Equal(t, req.response, resp)
}

func TestRequest_Reset(t *testing.T) {
	req := newTestRequest()
	req.Params.Add("id", "1")
	req.Vars.Add("name", "value")
	req.Headers.Add("x-test", "1")
	req.Chunked = true
	req.Env.Error = errors.New("boom")

	req.Reset()

	require.True(t, req.Params.Empty())
	require.True(t, req.Vars.Empty())
	require.True(t, req.Headers.Empty())
	require.False(t, req.Chunked)
}
