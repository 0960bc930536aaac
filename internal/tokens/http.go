package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/jlais/visiondemo/internal/session"
)

const (
	sandboxHeader   = "X-Sandbox-Id"
	maxErrorBody    = 256
	defaultTimeout  = 20 * time.Second
	userAgentHeader = "visiondemo"
)

type connectionRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
}

type HTTPOptions struct {
	// SandboxID and SandboxURL address a LiveKit Cloud sandbox token server.
	SandboxID  string
	SandboxURL string

	// Endpoint is a self-hosted connection-details URL. It wins over the
	// sandbox when both are set.
	Endpoint string

	Timeout time.Duration
	Dial    fasthttp.DialFunc
}

// HTTP fetches connection details from a remote endpoint.
type HTTP struct {
	client    *fasthttp.Client
	url       string
	sandboxID string
	timeout   time.Duration
}

func NewHTTP(opts HTTPOptions) *HTTP {
	h := &HTTP{
		client: &fasthttp.Client{
			Name: userAgentHeader,
			Dial: opts.Dial,
		},
		timeout: opts.Timeout,
	}
	if h.timeout <= 0 {
		h.timeout = defaultTimeout
	}

	switch {
	case opts.Endpoint != "":
		h.url = opts.Endpoint
	case opts.SandboxID != "" && opts.SandboxURL != "":
		h.url = opts.SandboxURL
		h.sandboxID = opts.SandboxID
	}
	return h
}

// Configured reports whether an endpoint is set.
func (h *HTTP) Configured() bool {
	return h.url != ""
}

// FetchConnectionDetails POSTs the room and participant names. It returns
// nil details when no endpoint is configured or the response lacks a URL or
// token.
func (h *HTTP) FetchConnectionDetails(ctx context.Context, roomName, participantName string) (*session.ConnectionDetails, error) {
	if !h.Configured() {
		return nil, nil
	}

	body, err := json.Marshal(connectionRequest{RoomName: roomName, ParticipantName: participantName})
	if err != nil {
		return nil, err
	}

	// not pooled: the request may outlive this call when ctx ends first
	req := &fasthttp.Request{}
	resp := &fasthttp.Response{}
	req.SetRequestURI(h.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if h.sandboxID != "" {
		req.Header.Set(sandboxHeader, h.sandboxID)
	}
	req.SetBody(body)

	deadline := time.Now().Add(h.timeout)
	clamped := false
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline, clamped = d, true
	}

	done := make(chan error, 1)
	go func() {
		done <- h.client.DoDeadline(req, resp, deadline)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		// fasthttp can hit the shared deadline before the context timer fires
		if clamped && errors.Is(err, fasthttp.ErrTimeout) {
			<-ctx.Done()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			return nil, err
		}
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		msg := resp.Body()
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenService, status, msg)
	}

	var details session.ConnectionDetails
	if err := json.Unmarshal(resp.Body(), &details); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrTokenService, err)
	}
	if !details.Valid() {
		return nil, nil
	}
	return &details, nil
}
