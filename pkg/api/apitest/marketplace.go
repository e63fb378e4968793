// Package apitest provides an in-process marketplace that speaks the 402
// payment-required convention, for use in tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

const (
	// TxHash is a well-formed payment proof accepted by the stub's paid
	// endpoints.
	TxHash = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

	// WeatherCost is the amount the stub asks for on /api/weather.
	WeatherCost = "0.03"
)

// ServicesJSON is the discovery document served on /api/services.
const ServicesJSON = `[
  {"name":"Weather API","description":"Current weather for any city","endpoint":"/api/weather","cost_usdc":"0.03","category":"Data","tags":["weather","forecast"]},
  {"name":"Web Search","description":"Search the web","endpoint":"/api/search","cost_usdc":"0.01","category":"Search","tags":["search","web"]},
  {"name":"Crypto Prices","description":"Live crypto prices","endpoint":"/api/crypto","cost_usdc":"0.02","category":"Finance","tags":["crypto","bitcoin"]},
  {"name":"Image Generation","description":"AI image generation from a prompt","endpoint":"/api/image","cost_usdc":"0.05","category":"AI","tags":["image","ai"]},
  {"name":"URL Scraper","description":"Extract text from a web page","endpoint":"/api/scrape","category":"Data","tags":[]}
]`

// StatsJSON is served on /api/public-stats.
const StatsJSON = `{"services":{"total":5},"apiCalls":{"total":1234},"integrations":{"total":3}}`

// InfoJSON is served on /.
const InfoJSON = `{"name":"x402 Bazaar","version":"2.0.0","status":"online"}`

// Request is a request as observed by the Marketplace.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Marketplace is an httptest.Server with the marketplace's routes.  Any
// route can be replaced with Handle.
type Marketplace struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []Request
	overrides map[string]http.HandlerFunc
}

func NewMarketplace(t *testing.T) *Marketplace {
	t.Helper()

	m := &Marketplace{
		overrides: map[string]http.HandlerFunc{},
	}

	r := chi.NewRouter()
	r.Use(m.record, m.override)

	r.Get("/", Respond(http.StatusOK, InfoJSON))
	r.Get("/api/services", Respond(http.StatusOK, ServicesJSON))
	r.Get("/api/public-stats", Respond(http.StatusOK, StatsJSON))
	r.Get("/api/weather", Paywall(WeatherCost, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"city":        r.URL.Query().Get("city"),
			"temperature": 18,
			"conditions":  "Cloudy",
		})
	}))
	r.Get("/api/crypto", Paywall("0.02", echoQuery("symbol")))
	r.Get("/api/search", Paywall("0.01", echoQuery("q")))
	r.Get("/api/scrape", Paywall("0.02", echoQuery("url")))
	r.Post("/api/image", Paywall("0.05", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"prompt": body["prompt"], "url": "https://img.example/1.png"})
	}))

	m.Server = httptest.NewServer(r)
	t.Cleanup(m.Close)

	return m
}

// Handle replaces (or adds) the handler for method and path.
func (m *Marketplace) Handle(method, path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.overrides[method+" "+path] = h
}

// Requests returns a copy of every request received so far.
func (m *Marketplace) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Request(nil), m.requests...)
}

// LastRequest fails the test if no request was received.
func (m *Marketplace) LastRequest(t *testing.T) Request {
	t.Helper()

	reqs := m.Requests()
	require.NotEmpty(t, reqs, "marketplace received no requests")

	return reqs[len(reqs)-1]
}

func (m *Marketplace) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte

		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		m.mu.Lock()
		m.requests = append(m.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		m.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (m *Marketplace) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		h, ok := m.overrides[r.Method+" "+r.URL.Path]
		m.mu.Unlock()

		if ok {
			h(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Respond writes status and body verbatim.
func Respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// Paywall answers 402 with {"amount": cost} until the request carries a
// payment proof header, then hands over to next.
func Paywall(cost string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(api.HeaderPaymentTxHash) == "" {
			writeJSON(w, http.StatusPaymentRequired, map[string]any{
				"error":  "Payment Required",
				"amount": cost,
			})
			return
		}

		next(w, r)
	}
}

// Stall blocks until the client gives up or d elapses.
func Stall(d time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(d):
			w.WriteHeader(http.StatusOK)
		}
	}
}

// ClosedURL returns the URL of a server that is no longer listening.
func ClosedURL(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	return u
}

func echoQuery(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{key: r.URL.Query().Get(key)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
