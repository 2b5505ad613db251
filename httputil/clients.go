package httputil

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"
)

// NewScrapingClient builds the client used against the target site for one
// session. Each session owns its own client: no cross-session sharing of
// sockets or cookies. HTTP/2 is disabled to keep the TLS fingerprint
// closer to a plain mobile client.
func NewScrapingClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
	}

	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
