package tokens

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type seenRequest struct {
	method    string
	path      string
	sandboxID string
	body      connectionRequest
}

// startFake serves handler on an in-memory listener and returns a dialer
// for it.
func startFake(t *testing.T, handler func(ctx *fasthttp.RequestCtx)) fasthttp.DialFunc {
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go srv.Serve(ln)
	t.Cleanup(func() {
		srv.Shutdown()
		ln.Close()
	})
	return func(string) (net.Conn, error) {
		return ln.Dial()
	}
}

func TestHTTPSandboxRequest(t *testing.T) {
	seen := make(chan seenRequest, 1)
	dial := startFake(t, func(ctx *fasthttp.RequestCtx) {
		var body connectionRequest
		_ = json.Unmarshal(ctx.PostBody(), &body)
		seen <- seenRequest{
			method:    string(ctx.Method()),
			path:      string(ctx.Path()),
			sandboxID: string(ctx.Request.Header.Peek("X-Sandbox-ID")),
			body:      body,
		}
		ctx.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusCreated)
		ctx.SetBodyString(`{"serverUrl":"wss://x","roomName":"test-room","participantName":"user-1234","participantToken":"tok1"}`)
	})

	h := NewHTTP(HTTPOptions{
		SandboxID:  "vision-demo-abc",
		SandboxURL: "http://sandbox.test/api/sandbox/connection-details",
		Dial:       dial,
	})
	require.True(t, h.Configured())

	details, err := h.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "wss://x", details.ServerURL)
	assert.Equal(t, "tok1", details.ParticipantToken)
	assert.Equal(t, "test-room", details.RoomName)

	req := <-seen
	assert.Equal(t, fasthttp.MethodPost, req.method)
	assert.Equal(t, "/api/sandbox/connection-details", req.path)
	assert.Equal(t, "vision-demo-abc", req.sandboxID)
	assert.Equal(t, connectionRequest{RoomName: "test-room", ParticipantName: "user-1234"}, req.body)
}

func TestHTTPEndpointWinsOverSandbox(t *testing.T) {
	seen := make(chan seenRequest, 1)
	dial := startFake(t, func(ctx *fasthttp.RequestCtx) {
		seen <- seenRequest{
			path:      string(ctx.Path()),
			sandboxID: string(ctx.Request.Header.Peek("X-Sandbox-Id")),
		}
		ctx.SetBodyString(`{"serverUrl":"wss://self","participantToken":"tok2"}`)
	})

	h := NewHTTP(HTTPOptions{
		SandboxID:  "ignored",
		SandboxURL: "http://sandbox.test/api/sandbox/connection-details",
		Endpoint:   "http://tokens.test/api/connection-details",
		Dial:       dial,
	})

	details, err := h.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	require.NoError(t, err)
	assert.Equal(t, "wss://self", details.ServerURL)

	req := <-seen
	assert.Equal(t, "/api/connection-details", req.path)
	assert.Empty(t, req.sandboxID)
}

func TestHTTPNotConfigured(t *testing.T) {
	h := NewHTTP(HTTPOptions{SandboxURL: "http://sandbox.test"})
	assert.False(t, h.Configured())

	details, err := h.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func TestHTTPIncompleteResponse(t *testing.T) {
	dial := startFake(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"serverUrl":"wss://x"}`)
	})
	h := NewHTTP(HTTPOptions{Endpoint: "http://tokens.test/", Dial: dial})

	details, err := h.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func TestHTTPErrorStatus(t *testing.T) {
	dial := startFake(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("sandbox not found")
	})
	h := NewHTTP(HTTPOptions{SandboxID: "missing", SandboxURL: "http://sandbox.test/", Dial: dial})

	_, err := h.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	require.ErrorIs(t, err, ErrTokenService)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "sandbox not found")
}

func TestHTTPMalformedBody(t *testing.T) {
	dial := startFake(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString("<html>")
	})
	h := NewHTTP(HTTPOptions{Endpoint: "http://tokens.test/", Dial: dial})

	_, err := h.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	assert.ErrorIs(t, err, ErrTokenService)
}

func TestHTTPContextCancelled(t *testing.T) {
	release := make(chan struct{})
	dial := startFake(t, func(ctx *fasthttp.RequestCtx) {
		<-release
		ctx.SetBodyString(`{"serverUrl":"wss://x","participantToken":"tok"}`)
	})
	defer close(release)

	h := NewHTTP(HTTPOptions{Endpoint: "http://tokens.test/", Dial: dial, Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.FetchConnectionDetails(ctx, "test-room", "user-1234")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, fasthttp.ErrTimeout)
}

func TestHTTPOwnTimeout(t *testing.T) {
	release := make(chan struct{})
	dial := startFake(t, func(ctx *fasthttp.RequestCtx) {
		<-release
	})
	defer close(release)

	h := NewHTTP(HTTPOptions{Endpoint: "http://tokens.test/", Dial: dial, Timeout: 50 * time.Millisecond})

	_, err := h.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	assert.ErrorIs(t, err, fasthttp.ErrTimeout)
}
