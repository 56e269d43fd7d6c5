package http1

import (
	"bufio"
	"io"
	stdhttp "net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/http"
	"github.com/kestrel-http/kestrel/http/cookie"
	"github.com/kestrel-http/kestrel/http/method"
	"github.com/kestrel-http/kestrel/http/mime"
	"github.com/kestrel-http/kestrel/http/proto"
	"github.com/kestrel-http/kestrel/internal/construct"
	"github.com/kestrel-http/kestrel/transport/dummy"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func getSerializer(request *http.Request, client *dummy.Client) *serializer {
	return newSerializer(config.Default(), request, client, construct.Codecs(), make([]byte, 0, 1024))
}

func newRequest() *http.Request {
	return construct.Request(config.Default(), dummy.NewNopClient(), nil)
}

func readResponse(t *testing.T, client *dummy.Client, stdreq *stdhttp.Request) *stdhttp.Response {
	resp, err := stdhttp.ReadResponse(bufio.NewReader(strings.NewReader(client.Written())), stdreq)
	require.NoError(t, err)
	return resp
}

func TestSerializer_Write(t *testing.T) {
	stdreq, err := stdhttp.NewRequest(stdhttp.MethodGet, "/", nil)
	require.NoError(t, err)

	t.Run("default builder", func(t *testing.T) {
		request := newRequest()
		request.Method = method.GET
		client := dummy.NewMockClient()
		serializer := getSerializer(request, client)

		require.NoError(t, serializer.Write(proto.HTTP11, http.NewResponse()))

		resp := readResponse(t, client, stdreq)
		require.Equal(t, 200, resp.StatusCode)
		require.Contains(t, resp.Header, "Content-Length")
		require.Contains(t, resp.Header, "Content-Type")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Empty(t, body)
	})

	t.Run("default headers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.Default = map[string]string{
			"Server": "kestrel",
		}
		request := construct.Request(cfg, dummy.NewNopClient(), nil)
		request.Method = method.GET
		client := dummy.NewMockClient()
		serializer := newSerializer(cfg, request, client, construct.Codecs(), make([]byte, 0, 1024))

		response := http.NewResponse().
			Header("Hello", "nether").
			Header("Something", "special", "here")

		require.NoError(t, serializer.Write(proto.HTTP11, response))

		resp := readResponse(t, client, stdreq)
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, []string{"nether"}, resp.Header["Hello"])
		require.Equal(t, []string{"kestrel"}, resp.Header["Server"])
		require.Equal(t, []string{"special", "here"}, resp.Header["Something"])
	})

	t.Run("HEAD request", func(t *testing.T) {
		const body = "Hello, world!"
		request := newRequest()
		request.Method = method.HEAD
		client := dummy.NewMockClient()
		serializer := getSerializer(request, client)
		response := http.NewResponse().String(body)

		require.NoError(t, serializer.Write(proto.HTTP11, response))

		r, err := stdhttp.NewRequest(stdhttp.MethodHead, "/", nil)
		require.NoError(t, err)
		resp := readResponse(t, client, r)
		require.Equal(t, len(body), int(resp.ContentLength))
		fullBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Empty(t, fullBody)
	})

	t.Run("HTTP/1.0 without keep-alive", func(t *testing.T) {
		request := newRequest()
		client := dummy.NewMockClient()
		serializer := getSerializer(request, client)
		response := http.NewResponse()

		err := serializer.Write(proto.HTTP10, response)
		require.NoError(t, err)
	})

	t.Run("custom code and status", func(t *testing.T) {
		request := newRequest()
		client := dummy.NewMockClient()
		serializer := getSerializer(request, client)
		response := http.NewResponse().Code(600)

		require.NoError(t, serializer.Write(proto.HTTP11, response))

		resp := readResponse(t, client, stdreq)
		require.Equal(t, 600, resp.StatusCode)
	})

	t.Run("stream with known size", func(t *testing.T) {
		const body = "Hello, world!"
		reader := strings.NewReader(body)
		request := newRequest()
		client := dummy.NewMockClient()
		serializer := getSerializer(request, client)
		response := http.NewResponse().Stream(reader, int64(reader.Len()))

		require.NoError(t, serializer.Write(proto.HTTP11, response))

		resp := readResponse(t, client, stdreq)
		require.Equal(t, len(body), int(resp.ContentLength))
		require.Empty(t, resp.TransferEncoding)
		fullBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(fullBody))
	})

	t.Run("stream with unknown size", func(t *testing.T) {
		const body = "Hello, world!"
		reader := strings.NewReader(body)
		request := newRequest()
		client := dummy.NewMockClient()
		serializer := getSerializer(request, client)
		response := http.NewResponse().Stream(reader, -1)

		require.NoError(t, serializer.Write(proto.HTTP11, response))

		resp := readResponse(t, client, stdreq)
		require.Equal(t, []string{"chunked"}, resp.TransferEncoding)
		fullBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(fullBody))
	})

	t.Run("stream in response to a HEAD request", func(t *testing.T) {
		const body = "Hello, world!"
		reader := strings.NewReader(body)
		request := newRequest()
		request.Method = method.HEAD
		client := dummy.NewMockClient()
		serializer := getSerializer(request, client)
		response := http.NewResponse().Stream(reader, int64(reader.Len()))
		r, err := stdhttp.NewRequest(stdhttp.MethodHead, "/", nil)
		require.NoError(t, err)

		require.NoError(t, serializer.Write(proto.HTTP11, response))

		resp := readResponse(t, client, r)
		require.Empty(t, resp.TransferEncoding)
		require.Equal(t, len(body), int(resp.ContentLength))
		fullBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Empty(t, fullBody)
	})

	t.Run("cookies", func(t *testing.T) {
		t.Run("single pair no params", func(t *testing.T) {
			request := newRequest()
			client := dummy.NewMockClient()
			serializer := getSerializer(request, client)
			response := http.NewResponse().Cookie(cookie.New("hello", "world"))

			require.NoError(t, serializer.Write(proto.HTTP11, response))

			r, err := stdhttp.NewRequest(stdhttp.MethodHead, "/", nil)
			require.NoError(t, err)
			resp := readResponse(t, client, r)
			require.Equal(t, "hello=world", resp.Header.Get("Set-Cookie"))
		})

		t.Run("multiple pairs with parameters", func(t *testing.T) {
			request := newRequest()
			client := dummy.NewMockClient()
			serializer := getSerializer(request, client)
			base := cookie.Build("hello", "world").
				Path("/").
				Domain("kestrel.dev").
				Expires(time.Date(
					2010, 5, 27, 16, 10, 32, 22,
					time.FixedZone("CEST", 0),
				)).
				SameSite(cookie.SameSiteLax).
				Secure(true).
				HttpOnly(true)

			response := http.NewResponse().Cookie(
				base.MaxAge(3600).Cookie(),
				base.MaxAge(-1).Cookie(),
			)

			require.NoError(t, serializer.Write(proto.HTTP11, response))

			r, err := stdhttp.NewRequest(stdhttp.MethodHead, "/", nil)
			require.NoError(t, err)
			resp := readResponse(t, client, r)
			cookies := resp.Header.Values("Set-Cookie")
			require.Equal(t, 2, len(cookies), "must be only 2 cookies")
			wantCookie1 := "hello=world; Path=/; Domain=kestrel.dev; Expires=Thu, 27 May 2010 16:10:32 GMT; " +
				"MaxAge=3600; SameSite=Lax; Secure; HttpOnly"
			wantCookie2 := "hello=world; Path=/; Domain=kestrel.dev; Expires=Thu, 27 May 2010 16:10:32 GMT; " +
				"MaxAge=0; SameSite=Lax; Secure; HttpOnly"
			require.Equal(t, wantCookie1, cookies[0])
			require.Equal(t, wantCookie2, cookies[1])
		})
	})
}

func TestSerializer_Upgrade(t *testing.T) {
	request := newRequest()
	request.Protocol = proto.HTTP10
	request.Upgrade = proto.HTTP11
	client := dummy.NewMockClient()
	serializer := getSerializer(request, client)

	serializer.Upgrade()
	require.NoError(t, serializer.Write(proto.HTTP11, http.NewResponse()))

	written := client.Written()
	require.Contains(t, written, "101 Switching Protocol")
	require.Contains(t, written, "Connection: upgrade")
	require.Contains(t, written, "Upgrade: HTTP/1.1")
	require.Contains(t, written, "200 OK")
}

// TestSerializer_CharsetTranscoding exercises declaring a non-UTF-8 charset on the response:
// the body handed to the builder as a plain Go (UTF-8) string must reach the wire transcoded
// into the declared charset's bytes, with Content-Length measured in that encoding.
func TestSerializer_CharsetTranscoding(t *testing.T) {
	const body = "hello"
	request := newRequest()
	client := dummy.NewMockClient()
	serializer := getSerializer(request, client)
	response := http.NewResponse().String(body).Charset(mime.UTF16)

	require.NoError(t, serializer.Write(proto.HTTP11, response))

	written := client.Written()
	headerEnd := strings.Index(written, "\r\n\r\n")
	require.NotEqual(t, -1, headerEnd)
	header, wireBody := written[:headerEnd], written[headerEnd+4:]

	utf16 := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoded, err := utf16.NewDecoder().String(wireBody)
	require.NoError(t, err)
	require.Equal(t, body, decoded)

	require.Contains(t, header, "Content-Length: "+strconv.Itoa(len(wireBody)))
	require.Contains(t, header, "charset="+string(mime.UTF16))
}
