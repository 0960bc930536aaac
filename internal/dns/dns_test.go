package dns

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(lookup func(ctx context.Context, host, server string) ([]string, error)) *Resolver {
	r := NewResolver()
	r.Servers = []string{"10.0.0.1", "10.0.0.2"}
	r.LocalTimeout = 100 * time.Millisecond
	r.RemoteTimeout = 500 * time.Millisecond
	r.lookup = lookup
	return r
}

func TestLookupIPLiteral(t *testing.T) {
	r := testResolver(func(context.Context, string, string) ([]string, error) {
		t.Fatal("literal should not be resolved")
		return nil, nil
	})

	ip, err := r.Lookup(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)
}

func TestLookupPrefersIPv4(t *testing.T) {
	r := testResolver(func(_ context.Context, host, server string) ([]string, error) {
		assert.Empty(t, server)
		return []string{"2001:db8::1", "192.0.2.10"}, nil
	})

	ip, err := r.Lookup(context.Background(), "cloud-api.livekit.io")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", ip)
}

func TestLookupFallsBackToPublicServers(t *testing.T) {
	r := testResolver(func(_ context.Context, host, server string) ([]string, error) {
		switch server {
		case "":
			return nil, errors.New("local resolver broken")
		case "10.0.0.2":
			return []string{"192.0.2.20"}, nil
		default:
			return nil, errors.New("refused")
		}
	})

	ip, err := r.Lookup(context.Background(), "cloud-api.livekit.io")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.20", ip)
}

func TestPublicServersJoinWithPort(t *testing.T) {
	for _, server := range NewResolver().Servers {
		require.NotNil(t, net.ParseIP(server), server)

		host, port, err := net.SplitHostPort(net.JoinHostPort(server, "53"))
		require.NoError(t, err, server)
		assert.Equal(t, server, host)
		assert.Equal(t, "53", port)
	}
}

func TestLookupAllServersFail(t *testing.T) {
	r := testResolver(func(context.Context, string, string) ([]string, error) {
		return nil, nil
	})

	_, err := r.Lookup(context.Background(), "nowhere.invalid")
	assert.ErrorContains(t, err, "all 2 public DNS servers failed")
}

func TestDialResolvesHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	r := testResolver(func(_ context.Context, host, _ string) ([]string, error) {
		assert.Equal(t, "token.test", host)
		return []string{"127.0.0.1"}, nil
	})

	conn, err := r.Dial(net.JoinHostPort("token.test", port))
	require.NoError(t, err)
	conn.Close()
}
