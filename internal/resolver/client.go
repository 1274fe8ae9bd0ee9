package resolver

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	_ "github.com/bdandy/go-socks4" // registers the socks4 scheme with x/net/proxy
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
)

const clientTimeout = 15 * time.Second

// newHTTPClient builds the resolver's HTTP client, optionally dialing
// through an http, socks4 or socks5 proxy. Any proxy problem degrades to
// a direct client rather than failing startup.
func newHTTPClient(proxyStr string, log zerolog.Logger) *http.Client {
	direct := &http.Client{Timeout: clientTimeout}
	if proxyStr == "" {
		return direct
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		log.Warn().Str("proxy", proxyStr).Err(err).Msg("invalid proxy url, going direct")
		return direct
	}

	var transport *http.Transport
	switch proxyURL.Scheme {
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	case "socks4", "socks5":
		dialer, err := proxy.FromURL(proxyURL, &net.Dialer{Timeout: 10 * time.Second})
		if err != nil {
			log.Warn().Str("proxy", proxyStr).Err(err).Msg("proxy dialer error, going direct")
			return direct
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	default:
		log.Warn().Str("scheme", proxyURL.Scheme).Msg("unsupported proxy scheme, going direct")
		return direct
	}

	log.Info().Str("proxy", proxyStr).Msg("track resolution goes through proxy")
	return &http.Client{Timeout: clientTimeout, Transport: transport}
}
