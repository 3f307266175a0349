// Package geo resolves an IP address to a coarse location through public
// geolocation APIs. Lookups are best-effort enrichment: every failure mode
// degrades to the Unknown Location placeholder and must never block or fail
// the caller's primary write path.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// UnknownLocation is the placeholder shown when no location can be resolved.
const UnknownLocation = "Unknown Location"

// Location is a resolved coarse location
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// String joins the non-empty parts with ", ", or returns UnknownLocation.
func (l Location) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return UnknownLocation
	}
	return strings.Join(parts, ", ")
}

// Client looks up locations against a primary provider with a fallback
// provider, in the shape of ipapi.co and ip-api.com responses.
type Client struct {
	primaryBaseURL  string
	fallbackBaseURL string
	httpClient      *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURLs overrides the provider endpoints, mainly for tests.
func WithBaseURLs(primary, fallback string) Option {
	return func(c *Client) {
		c.primaryBaseURL = primary
		c.fallbackBaseURL = fallback
	}
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a geolocation client
func NewClient(opts ...Option) *Client {
	c := &Client{
		primaryBaseURL:  "https://ipapi.co",
		fallbackBaseURL: "http://ip-api.com",
		httpClient:      &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup resolves ip to a location. Unknown or empty IPs short-circuit to an
// empty location without a network call.
func (c *Client) Lookup(ctx context.Context, ip string) (Location, error) {
	if ip == "" || ip == "Unknown" {
		return Location{}, nil
	}

	loc, err := c.lookupPrimary(ctx, ip)
	if err == nil {
		return loc, nil
	}
	slog.Debug("Primary geolocation lookup failed, trying fallback", "ip", ip, "error", err)

	loc, err = c.lookupFallback(ctx, ip)
	if err != nil {
		return Location{}, fmt.Errorf("geolocation lookup failed: %w", err)
	}
	return loc, nil
}

// LookupString resolves ip to a display string, degrading to
// UnknownLocation on any failure.
func (c *Client) LookupString(ctx context.Context, ip string) string {
	loc, err := c.Lookup(ctx, ip)
	if err != nil {
		return UnknownLocation
	}
	return loc.String()
}

type primaryResponse struct {
	City        string `json:"city"`
	Region      string `json:"region"`
	CountryName string `json:"country_name"`
	Error       bool   `json:"error"`
}

func (c *Client) lookupPrimary(ctx context.Context, ip string) (Location, error) {
	var resp primaryResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/json/", c.primaryBaseURL, ip), &resp); err != nil {
		return Location{}, err
	}
	if resp.Error {
		return Location{}, fmt.Errorf("provider reported error for ip %s", ip)
	}
	return Location{City: resp.City, Region: resp.Region, Country: resp.CountryName}, nil
}

type fallbackResponse struct {
	Status     string `json:"status"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	Country    string `json:"country"`
}

func (c *Client) lookupFallback(ctx context.Context, ip string) (Location, error) {
	var resp fallbackResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/json/%s", c.fallbackBaseURL, ip), &resp); err != nil {
		return Location{}, err
	}
	if resp.Status != "success" {
		return Location{}, fmt.Errorf("fallback provider reported status %q for ip %s", resp.Status, ip)
	}
	return Location{City: resp.City, Region: resp.RegionName, Country: resp.Country}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
