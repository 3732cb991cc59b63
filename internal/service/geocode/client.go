package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	applog "github.com/janisto/profile-directory/internal/platform/logging"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "profile-directory"
)

// Client implements Resolver using the Nominatim search API. Outbound calls
// are paced by a token bucket so a single instance stays within the public
// endpoint's usage policy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	email      string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every lookup.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithEmail sets the contact address passed as the email parameter.
func WithEmail(email string) Option {
	return func(c *Client) {
		c.email = email
	}
}

// WithRateLimit allows perSec lookups per second. A non-positive value
// disables pacing.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// NewClient creates a new Nominatim client.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve looks up address and interprets the first result as authoritative.
func (c *Client) Resolve(ctx context.Context, address string) (Coordinates, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Coordinates{}, &UpstreamError{Kind: UpstreamErrorKindTransport, cause: err}
		}
	}

	q := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}
	if c.email != "" {
		q.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, &UpstreamError{Kind: UpstreamErrorKindTransport, cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		kind := UpstreamErrorKindStatus
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = UpstreamErrorKindRateLimited
		}
		applog.LogWarn(ctx, "geocoding lookup failed",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(kind)),
		)
		return Coordinates{}, &UpstreamError{Kind: kind, Status: resp.StatusCode}
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, &UpstreamError{
			Kind:   UpstreamErrorKindDecode,
			Status: resp.StatusCode,
			cause:  fmt.Errorf("decoding geocoding response: %w", err),
		}
	}
	if len(places) == 0 {
		return Coordinates{}, ErrAddressNotFound
	}

	coords, err := parsePlace(places[0])
	if err != nil {
		return Coordinates{}, &UpstreamError{Kind: UpstreamErrorKindDecode, Status: resp.StatusCode, cause: err}
	}
	return coords, nil
}

func parsePlace(p nominatimPlace) (Coordinates, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parsing lat %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parsing lon %q: %w", p.Lon, err)
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}

// Compile-time interface check
var _ Resolver = (*Client)(nil)
