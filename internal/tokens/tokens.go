// Package tokens provides the sources of room connection details: a
// pre-issued token, a remote connection-details endpoint (LiveKit Cloud
// sandbox or self-hosted), and local signing with an API key pair.
package tokens

import (
	"context"
	"errors"

	"github.com/jlais/visiondemo/internal/config"
	"github.com/jlais/visiondemo/internal/dns"
	"github.com/jlais/visiondemo/internal/session"
)

var (
	ErrTokenService   = errors.New("token service error")
	ErrMissingKeyPair = errors.New("api key and secret are required")
)

// Static serves a pre-issued token.
type Static struct {
	URL   string
	Token string
}

func (s Static) FetchConnectionDetails(_ context.Context, roomName, participantName string) (*session.ConnectionDetails, error) {
	if s.URL == "" || s.Token == "" {
		return nil, nil
	}
	return &session.ConnectionDetails{
		ServerURL:        s.URL,
		ParticipantToken: s.Token,
	}, nil
}

// Chain asks each source in order and returns the first usable details.
// An error from any source ends the search.
type Chain []session.TokenService

func (c Chain) FetchConnectionDetails(ctx context.Context, roomName, participantName string) (*session.ConnectionDetails, error) {
	for _, src := range c {
		details, err := src.FetchConnectionDetails(ctx, roomName, participantName)
		if err != nil {
			return nil, err
		}
		if details.Valid() {
			return details, nil
		}
	}
	return nil, nil
}

// FromConfig assembles the configured sources: pre-issued token first, then
// the remote endpoint, then local signing.
func FromConfig(cfg *config.Config) Chain {
	resolver := dns.NewResolver()
	return Chain{
		Static{URL: cfg.LiveKitURL, Token: cfg.Token},
		NewHTTP(HTTPOptions{
			SandboxID:  cfg.SandboxID,
			SandboxURL: cfg.SandboxURL,
			Endpoint:   cfg.TokenEndpoint,
			Timeout:    cfg.RequestTimeout,
			Dial:       resolver.Dial,
		}),
		NewIssuer(cfg.LiveKitURL, cfg.APIKey, cfg.APISecret, cfg.TokenTTL),
	}
}
