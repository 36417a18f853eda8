// Package proxy rewrites user proxy specs for the two consumers that need
// them: the in-process HTTP client and the player subprocess. They disagree
// on how SOCKS schemes express remote DNS resolution.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	xproxy "golang.org/x/net/proxy"
)

const schemeSep = "://"

// bareSchemes may also be written without slashes, as in "socks5h:host:port".
var bareSchemes = map[string]bool{
	"socks4":  true,
	"socks4a": true,
	"socks5":  true,
	"socks5h": true,
}

// split returns the lowercased scheme and the remainder of spec. A spec
// without "://" or a bare SOCKS prefix has no scheme.
func split(spec string) (scheme, rest string) {
	spec = strings.TrimSpace(spec)
	if i := strings.Index(spec, schemeSep); i >= 0 {
		return strings.ToLower(spec[:i]), spec[i+len(schemeSep):]
	}
	if i := strings.IndexByte(spec, ':'); i > 0 {
		if s := strings.ToLower(spec[:i]); bareSchemes[s] {
			return s, spec[i+1:]
		}
	}
	return "", spec
}

func join(scheme, rest string) string {
	return scheme + schemeSep + rest
}

// ForTransport rewrites spec for the in-process client, which resolves
// names through the proxy whatever the suffix says: socks5h becomes socks5,
// socks4 becomes socks4a and a bare host:port becomes socks5.
func ForTransport(spec string) string {
	scheme, rest := split(spec)
	switch scheme {
	case "", "socks5h":
		return join("socks5", rest)
	case "socks4":
		return join("socks4a", rest)
	default:
		return join(scheme, rest)
	}
}

// ForPlayerProcess rewrites spec for streamlink, which needs the remote-DNS
// suffix spelled out: socks5 becomes socks5h, socks4 becomes socks4a and a
// bare host:port becomes socks5h.
func ForPlayerProcess(spec string) string {
	scheme, rest := split(spec)
	switch scheme {
	case "", "socks5":
		return join("socks5h", rest)
	case "socks4":
		return join("socks4a", rest)
	default:
		return join(scheme, rest)
	}
}

// ErrUnsupportedScheme is returned by NewHTTPClient for proxies the
// in-process transport cannot dial.
var ErrUnsupportedScheme = errors.New("unsupported proxy scheme")

// NewHTTPClient builds the client used for API requests. An empty spec
// means a direct connection.
func NewHTTPClient(spec string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{Transport: transport}
	if strings.TrimSpace(spec) == "" {
		return client, nil
	}

	u, err := url.Parse(ForTransport(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", spec, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: missing host", spec)
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5":
		dialer, err := xproxy.FromURL(u, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", spec, err)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer(dialer)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
	return client, nil
}

func contextDialer(d xproxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(xproxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}
