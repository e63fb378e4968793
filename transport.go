package bazaar

import (
	"net/http"
)

var _ http.RoundTripper = (*sessionTransport)(nil)

// sessionTransport adds the marketplace's default headers to every request
// that doesn't already carry them.  It holds no per-call state so a single
// instance is shared by all calls made through a Client.
type sessionTransport struct {
	next   http.RoundTripper
	header http.Header
}

func newSessionTransport(next http.RoundTripper, userAgent string) *sessionTransport {
	if next == nil {
		next = http.DefaultTransport
	}

	header := http.Header{}
	header.Set("Accept", "application/json")

	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	return &sessionTransport{
		next:   next,
		header: header,
	}
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// A RoundTripper must not modify the caller's request.
	out := req.Clone(req.Context())

	for k, vs := range t.header {
		if out.Header.Get(k) != "" {
			continue
		}

		out.Header[k] = append([]string(nil), vs...)
	}

	return t.next.RoundTrip(out)
}

// newSession builds the http.Client used for every request.  Only the
// transport and timeout differ from the client supplied through options.
func newSession(cfg *config) *http.Client {
	return &http.Client{
		Transport:     newSessionTransport(cfg.client.Transport, cfg.userAgent),
		CheckRedirect: cfg.client.CheckRedirect,
		Jar:           cfg.client.Jar,
		Timeout:       cfg.timeout,
	}
}
