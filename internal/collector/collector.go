// Package collector sends events to a Nameless Analytics collector endpoint.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/nameless-analytics/nameless-tools/internal/event"
)

var (
	// ErrSendFailure is returned when an event could not reach the collector.
	ErrSendFailure = errors.New("event send failed")
	// ErrInvalidEndpoint is returned when the configured endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid collector endpoint")
)

// Config is the collector endpoint configuration.
type Config struct {
	Endpoint      string
	Origin        string
	APIKey        string        `mapstructure:"apikey"`
	PreviewHeader string        `mapstructure:"previewheader"`
	ClientID      string        `mapstructure:"clientid"`
	SessionID     string        `mapstructure:"sessionid"`
	Timeout       time.Duration // 0 relies on the transport defaults.
}

// Client posts events to the collector.
type Client struct {
	endpoint string
	headers  http.Header
	http     *http.Client
}

type options struct {
	httpClient *http.Client
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// WithHTTPClient sets the HTTP client used to reach the collector.
func WithHTTPClient(c *http.Client) Options {
	return func(o *options) {
		o.httpClient = c
	}
}

// New returns a Client for the configured endpoint.
func New(cfg Config, args ...Options) (Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return Client{}, errors.Join(ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Client{}, fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidEndpoint, cfg.Endpoint)
	}

	opts := options{
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Client{
		endpoint: u.String(),
		headers:  headers(cfg),
		http:     opts.httpClient,
	}, nil
}

// Endpoint returns the URL events are posted to.
func (c Client) Endpoint() string {
	return c.endpoint
}

// Response is the collector answer to an event.
type Response struct {
	StatusCode int
	// Message is the human readable answer of the collector. It is for display only.
	Message string
}

// OK returns true when the collector accepted the event.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Send posts e to the collector.
//
// Any answer from the collector, whatever its status, is a Response. Errors are only returned
// when the collector could not be reached, and wrap ErrSendFailure.
func (c Client) Send(ctx context.Context, e event.Event) (Response, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal event: %v", err)
	}

	slog.Debug("Sending event to collector", "url", c.endpoint, "event_id", e.EventID, "payload", string(data))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header = c.headers.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, errors.Join(ErrSendFailure, fmt.Errorf("failed to send HTTP request: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("Failed to read collector response body", "error", err)
	}

	slog.Debug("Collector answered", "status", resp.StatusCode, "body", string(body))
	return Response{
		StatusCode: resp.StatusCode,
		Message:    message(body),
	}, nil
}

func headers(cfg Config) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Api-Key", cfg.APIKey)
	if cfg.PreviewHeader != "" {
		h.Set("X-Gtm-Server-Preview", cfg.PreviewHeader)
	}
	if cfg.Origin != "" {
		h.Set("Origin", cfg.Origin)
	}
	h.Set("User-Agent", constants.UserAgent)
	// Identifiers are sent verbatim: http.Cookie would quote or strip some of their bytes.
	h.Set("Cookie", fmt.Sprintf("%s=%s; %s=%s", constants.ClientCookie, cfg.ClientID, constants.SessionCookie, cfg.SessionID))
	return h
}
