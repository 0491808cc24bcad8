package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

// maxRedirects bounds the hops followed for one fetch.
const maxRedirects = 5

// errBlockedURL is returned for URLs the private-network guard rejects.
var errBlockedURL = errors.New("url not allowed")

// checkURL parses raw and rejects non-http(s) schemes. When the guard is on
// it also rejects hosts resolving to loopback, private or link-local
// addresses.
func (h *Handlers) checkURL(ctx context.Context, raw string) (*url.URL, error) {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBlockedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", errBlockedURL, u.Scheme)
	}
	if !h.blockPrivate {
		return u, nil
	}

	ips, err := h.lookupIP(ctx, u.Hostname())
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", errBlockedURL, u.Hostname(), err)
	}
	for _, ip := range ips {
		if blockedIP(ip) {
			return nil, fmt.Errorf("%w: %s resolves to %s", errBlockedURL, u.Hostname(), ip)
		}
	}
	return u, nil
}

func blockedIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// checkRedirect reruns checkURL on every hop so a public URL cannot
// redirect into the private network.
func (h *Handlers) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	_, err := h.checkURL(req.Context(), req.URL.String())
	return err
}

// dialControl rejects blocked destination addresses at connect time, which
// covers DNS answers that change between checkURL and the dial.
func dialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", errBlockedURL, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || blockedIP(ip) {
		return fmt.Errorf("%w: dial %s", errBlockedURL, address)
	}
	return nil
}

// guardedTransport dials only public addresses and ignores proxy settings
// from the environment, since a proxy would be dialed instead of the target.
func guardedTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   dialControl,
	}).DialContext
	return transport
}
