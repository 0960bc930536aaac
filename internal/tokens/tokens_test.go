package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlais/visiondemo/internal/config"
	"github.com/jlais/visiondemo/internal/session"
)

type sourceFunc func(ctx context.Context, roomName, participantName string) (*session.ConnectionDetails, error)

func (f sourceFunc) FetchConnectionDetails(ctx context.Context, roomName, participantName string) (*session.ConnectionDetails, error) {
	return f(ctx, roomName, participantName)
}

func TestStatic(t *testing.T) {
	details, err := Static{}.FetchConnectionDetails(context.Background(), "r", "p")
	assert.NoError(t, err)
	assert.Nil(t, details)

	details, err = Static{URL: "wss://x", Token: "tok"}.FetchConnectionDetails(context.Background(), "r", "p")
	require.NoError(t, err)
	assert.Equal(t, "wss://x", details.ServerURL)
	assert.Equal(t, "tok", details.ParticipantToken)
}

func TestChainOrder(t *testing.T) {
	var calls []string
	source := func(name string, details *session.ConnectionDetails, err error) session.TokenService {
		return sourceFunc(func(context.Context, string, string) (*session.ConnectionDetails, error) {
			calls = append(calls, name)
			return details, err
		})
	}

	chain := Chain{
		source("empty", nil, nil),
		source("partial", &session.ConnectionDetails{ServerURL: "wss://x"}, nil),
		source("good", &session.ConnectionDetails{ServerURL: "wss://x", ParticipantToken: "tok"}, nil),
		source("never", nil, errors.New("unreachable")),
	}

	details, err := chain.FetchConnectionDetails(context.Background(), "r", "p")
	require.NoError(t, err)
	assert.Equal(t, "tok", details.ParticipantToken)
	assert.Equal(t, []string{"empty", "partial", "good"}, calls)
}

func TestChainStopsOnError(t *testing.T) {
	boom := errors.New("network down")
	chain := Chain{
		sourceFunc(func(context.Context, string, string) (*session.ConnectionDetails, error) {
			return nil, boom
		}),
		Static{URL: "wss://x", Token: "tok"},
	}

	_, err := chain.FetchConnectionDetails(context.Background(), "r", "p")
	assert.ErrorIs(t, err, boom)
}

func TestChainEmpty(t *testing.T) {
	details, err := Chain{}.FetchConnectionDetails(context.Background(), "r", "p")
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func TestIssuer(t *testing.T) {
	issuer := NewIssuer("wss://example.livekit.cloud", "APIabcdefg", "somesecretencodedinbase62", time.Minute)
	require.True(t, issuer.Configured())

	details, err := issuer.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.livekit.cloud", details.ServerURL)
	assert.Equal(t, "test-room", details.RoomName)
	assert.Equal(t, "user-1234", details.ParticipantName)

	v, err := auth.ParseAPIToken(details.ParticipantToken)
	require.NoError(t, err)
	assert.Equal(t, "APIabcdefg", v.APIKey())
	assert.Equal(t, "user-1234", v.Identity())
}

func TestIssuerNotConfigured(t *testing.T) {
	issuer := NewIssuer("", "key", "secret", 0)
	details, err := issuer.FetchConnectionDetails(context.Background(), "r", "p")
	assert.NoError(t, err)
	assert.Nil(t, details)

	_, err = NewIssuer("wss://x", "", "", 0).Issue("r", "p")
	assert.ErrorIs(t, err, ErrMissingKeyPair)
}

func TestFromConfigNothingConfigured(t *testing.T) {
	chain := FromConfig(&config.Config{SandboxURL: config.DefaultSandboxURL})

	details, err := chain.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func TestFromConfigPrefersStaticToken(t *testing.T) {
	chain := FromConfig(&config.Config{
		LiveKitURL: "wss://x",
		Token:      "preissued",
		APIKey:     "key",
		APISecret:  "secret",
	})

	details, err := chain.FetchConnectionDetails(context.Background(), "test-room", "user-1234")
	require.NoError(t, err)
	assert.Equal(t, "preissued", details.ParticipantToken)
}
