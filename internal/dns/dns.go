package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// publicServers are queried if a local lookup fails
var publicServers = []string{
	"1.1.1.1",              // Cloudflare
	"1.0.0.1",              // Cloudflare
	"2606:4700:4700::1111", // Cloudflare
	"8.8.8.8",              // Google
	"8.8.4.4",              // Google
	"2001:4860:4860::8888", // Google
	"9.9.9.9",              // Quad9
	"149.112.112.112",      // Quad9
}

var ErrNoAddress = errors.New("no IP addresses found")

// Resolver looks hosts up with the system resolver first and races public
// DNS servers when that fails.
type Resolver struct {
	Servers       []string
	LocalTimeout  time.Duration
	RemoteTimeout time.Duration

	// lookup is swapped in tests
	lookup func(ctx context.Context, host, server string) ([]string, error)
}

// NewResolver returns a resolver with the default public server list.
func NewResolver() *Resolver {
	return &Resolver{
		Servers:       publicServers,
		LocalTimeout:  time.Second,
		RemoteTimeout: 2 * time.Second,
		lookup:        lookupHost,
	}
}

// Lookup resolves host to a single IP, preferring IPv4. IP literals are
// returned unchanged.
func (r *Resolver) Lookup(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}

	localCtx, cancel := context.WithTimeout(ctx, r.LocalTimeout)
	ips, err := r.lookup(localCtx, host, "")
	cancel()
	if err == nil && len(ips) > 0 {
		return preferIPv4(ips), nil
	}

	return r.race(ctx, host)
}

// race queries every public server at once and returns the first answer.
func (r *Resolver) race(ctx context.Context, host string) (string, error) {
	if len(r.Servers) == 0 {
		return "", fmt.Errorf("failed to resolve %s: %w", host, ErrNoAddress)
	}

	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, r.RemoteTimeout)
	defer cancel()

	results := make(chan result, len(r.Servers))
	for _, server := range r.Servers {
		go func(server string) {
			ips, err := r.lookup(ctx, host, server)
			if err == nil && len(ips) == 0 {
				err = ErrNoAddress
			}
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{ip: preferIPv4(ips)}
		}(server)
	}

	failures := 0
	for range r.Servers {
		select {
		case res := <-results:
			if res.err == nil {
				return res.ip, nil
			}
			failures++
		case <-ctx.Done():
			return "", fmt.Errorf("dns lookup for %s timed out during public DNS race", host)
		}
	}

	return "", fmt.Errorf("failed to resolve %s: all %d public DNS servers failed", host, failures)
}

// Dial resolves the host part of addr and dials TCP. It has the shape
// fasthttp.Client.Dial expects.
func (r *Resolver) Dial(addr string) (net.Conn, error) {
	return r.DialTimeout(addr, r.LocalTimeout+r.RemoteTimeout+5*time.Second)
}

// DialTimeout is Dial with an overall deadline.
func (r *Resolver) DialTimeout(addr string, timeout time.Duration) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ip, err := r.Lookup(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}

	var d net.Dialer
	return d.DialContext(ctx, "tcp", net.JoinHostPort(ip, port))
}

// lookupHost uses the system resolver when server is empty, otherwise it
// forces queries to server:53.
func lookupHost(ctx context.Context, host, server string) ([]string, error) {
	r := &net.Resolver{}
	if server != "" {
		r.PreferGo = true
		r.Dial = func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		}
	}
	return r.LookupHost(ctx, host)
}

func preferIPv4(ips []string) string {
	for _, ip := range ips {
		if parsed := net.ParseIP(ip); parsed != nil && parsed.To4() != nil {
			return ip
		}
	}
	return ips[0]
}
