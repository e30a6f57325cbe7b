// Package geocode resolves free-text place names to coordinates using the
// Nominatim search API.
//
// The core pipeline is geocoding-agnostic: it only ever receives final
// coordinates or exact bounds. This client is the glue used by the CLI and
// the HTTP service when the caller gives a city/country instead of lat/lng.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cartopress/cartopress/pkg/cache"
	"github.com/cartopress/cartopress/pkg/errors"
	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/httputil"
)

// DefaultEndpoint is the public Nominatim search endpoint.
const DefaultEndpoint = "https://nominatim.openstreetmap.org/search"

// courtesyDelay is waited before each uncached request, per the Nominatim
// usage policy (max one request per second).
const courtesyDelay = time.Second

// cacheTTL is how long geocoding results stay cached. Place coordinates
// effectively never move.
const cacheTTL = 30 * 24 * time.Hour

// Result is a resolved location.
type Result struct {
	Point       geo.Point `json:"point"`
	DisplayName string    `json:"display_name"`
}

// Client is a Nominatim client with response caching and a courtesy delay.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	endpoint  string
	userAgent string
	delay     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the search endpoint (used in tests).
func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = u }
}

// WithDelay overrides the courtesy delay (used in tests).
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// NewClient creates a Nominatim client backed by the given cache.
func NewClient(backend cache.Cache, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		cache:     backend,
		endpoint:  DefaultEndpoint,
		userAgent: "cartopress/1.0 (+https://github.com/cartopress/cartopress)",
		delay:     courtesyDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves "{city}, {country}" to coordinates. An empty result set
// is a LOCATION_NOT_FOUND error; the run must abort before any rendering.
func (c *Client) Geocode(ctx context.Context, city, country string) (*Result, error) {
	query := fmt.Sprintf("%s, %s", city, country)
	key := cache.Key("nominatim", []byte(query))

	if data, hit, _ := c.cache.Get(ctx, key); hit {
		var r Result
		if err := json.Unmarshal(data, &r); err == nil {
			return &r, nil
		}
		_ = c.cache.Delete(ctx, key)
	}

	// Courtesy pause before hitting the shared service. Deliberately
	// blocking; cancellation still works through the select.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.delay):
	}

	var places []nominatimPlace
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		places, err = c.search(ctx, query)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "geocoding %q", query)
	}

	if len(places) == 0 {
		return nil, errors.New(errors.ErrCodeLocationNotFound, "could not find coordinates for %s", query)
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return nil, errors.New(errors.ErrCodeLocationNotFound, "unparseable coordinates for %s", query)
	}

	r := &Result{
		Point:       geo.Point{Lat: lat, Lng: lng},
		DisplayName: places[0].DisplayName,
	}
	if data, err := json.Marshal(r); err == nil {
		_ = c.cache.Set(ctx, key, data, cacheTTL)
	}
	return r, nil
}

func (c *Client) search(ctx context.Context, query string) ([]nominatimPlace, error) {
	u := fmt.Sprintf("%s?q=%s&format=json&limit=1", c.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, httputil.Retryable(fmt.Errorf("nominatim: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, httputil.Retryable(fmt.Errorf("nominatim: status %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("nominatim: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}
	return places, nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
