package bazaar

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/x402-bazaar/x402-bazaar-go/internal/observability"
)

const (
	// DefaultBaseURL is the production marketplace.
	DefaultBaseURL = "https://x402-api.onrender.com"

	// DefaultTimeout bounds every request made by a Client.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies this library to the marketplace.
	DefaultUserAgent = "x402-bazaar-go/0.1.0"
)

type config struct {
	baseURL   string
	timeout   time.Duration
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

// Option represents a means of altering the default configuration of a
// Client.
type Option func(*config) error

func newConfig(opts ...Option) (*config, error) {
	var errs error

	cfg := &config{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		client: &http.Client{
			Transport: http.DefaultTransport,
		},
		userAgent: DefaultUserAgent,
		log:       observability.NewNoopLogger(),
	}

	for _, opt := range opts {
		errs = errors.Join(errs, opt(cfg))
	}

	if errs != nil {
		return nil, errs
	}

	return cfg, nil
}

// WithBaseURL points the Client at another marketplace deployment.  The URL
// must be absolute; paths passed to CallAPI are appended to it verbatim.
func WithBaseURL(baseURL string) Option {
	return func(c *config) error {
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
		}

		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidBaseURL, baseURL)
		}

		c.baseURL = baseURL

		return nil
	}
}

// WithTimeout sets the time limit applied to every request.  It cannot be
// changed per call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, timeout)
		}

		c.timeout = timeout

		return nil
	}
}

// WithHTTPClient is an Option that allows the user to provide a custom
// http.Client.  Its http.RoundTripper is wrapped to add the marketplace's
// default headers and its Timeout is replaced by the configured timeout.
// The provided client is not modified.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return errors.New("http client must not be nil")
		}

		c.client = client

		return nil
	}
}

// WithUserAgent replaces the User-Agent header sent on every request.
func WithUserAgent(userAgent string) Option {
	return func(c *config) error {
		c.userAgent = userAgent

		return nil
	}
}

// WithLogger is an Option that allows the user to provide an slog.Logger that
// can be used to observe the internal operation of the Client.
//
// If not provided, a No-Op logger is used.  Under normal operation, the
// Client writes one line of INFO-level logging for each request and one for
// its result.  Debug-level logging includes raw response bodies.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) error {
		c.log = observability.OrNoop(log)

		return nil
	}
}
