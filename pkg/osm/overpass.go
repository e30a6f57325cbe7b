package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cartopress/cartopress/pkg/cache"
	"github.com/cartopress/cartopress/pkg/errors"
	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/httputil"
)

// DefaultEndpoint is the public Overpass API interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// defaultTTL is how long Overpass responses stay cached. Map data changes
// slowly relative to poster generation.
const defaultTTL = 24 * time.Hour

// Client queries the Overpass API with response caching and retries.
// All methods are safe for concurrent use.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	endpoint  string
	userAgent string
	ttl       time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the Overpass interpreter URL (used in tests and
// for self-hosted instances).
func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = u }
}

// WithTTL overrides the cache TTL for responses.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// NewClient creates an Overpass client backed by the given cache. Pass a
// NullCache to disable caching.
func NewClient(backend cache.Cache, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 180 * time.Second},
		cache:     backend,
		endpoint:  DefaultEndpoint,
		userAgent: "cartopress/1.0 (+https://github.com/cartopress/cartopress)",
		ttl:       defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// layerQueries maps a feature layer token to its Overpass union body.
// %s is the bbox in Overpass order (south,west,north,east).
var layerQueries = map[string]string{
	LayerWater:  `(way["natural"="water"](%s);relation["natural"="water"](%s);way["waterway"="riverbank"](%s););`,
	LayerParks:  `(way["leisure"="park"](%s);relation["leisure"="park"](%s);way["landuse"="grass"](%s););`,
	LayerSubway: `(way["railway"~"^(subway|light_rail|tram)$"](%s););`,
}

// FetchRoads downloads the full street network inside the box. Any failure
// here is fatal for the run, so errors propagate with the provider message
// attached.
func (c *Client) FetchRoads(ctx context.Context, bbox geo.BBox) (*Graph, error) {
	q := fmt.Sprintf(`[out:json][timeout:180];(way["highway"](%s););out geom;`, overpassBBox(bbox))

	resp, err := c.query(ctx, q)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, err, "street network")
	}

	g := &Graph{}
	for _, el := range resp.Elements {
		if el.Type != "way" || len(el.Geometry) == 0 {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			ID:      el.ID,
			Highway: el.Tags["highway"],
			Points:  toPoints(el.Geometry),
		})
	}
	return g, nil
}

// FetchLayer downloads one feature layer (water, parks, subway). Unknown
// layer tokens and provider failures both surface as errors; callers treat
// them as "layer absent" per the recovery policy.
func (c *Client) FetchLayer(ctx context.Context, bbox geo.BBox, layer string) (*FeatureCollection, error) {
	tmpl, ok := layerQueries[layer]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown feature layer %q", layer)
	}
	bb := overpassBBox(bbox)
	body := strings.ReplaceAll(tmpl, "%s", bb)
	q := fmt.Sprintf(`[out:json][timeout:90];%sout geom;`, body)

	resp, err := c.query(ctx, q)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, err, "%s layer", layer)
	}

	fc := &FeatureCollection{}
	for _, el := range resp.Elements {
		switch el.Type {
		case "way":
			if len(el.Geometry) == 0 {
				continue
			}
			fc.Features = append(fc.Features, toFeature(el.Geometry))
		case "relation":
			for _, m := range el.Members {
				if m.Role != "outer" || len(m.Geometry) == 0 {
					continue
				}
				fc.Features = append(fc.Features, toFeature(m.Geometry))
			}
		}
	}
	return fc, nil
}

// query posts an Overpass QL string, consulting the cache first.
func (c *Client) query(ctx context.Context, q string) (*overpassResponse, error) {
	key := cache.Key("overpass", []byte(q))

	if data, hit, _ := c.cache.Get(ctx, key); hit {
		var resp overpassResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
		// Corrupt cache entry: drop it and refetch.
		_ = c.cache.Delete(ctx, key)
	}

	var raw []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		raw, err = c.post(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp overpassResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	_ = c.cache.Set(ctx, key, raw, c.ttl)
	return &resp, nil
}

func (c *Client) post(ctx context.Context, q string) ([]byte, error) {
	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, httputil.Retryable(fmt.Errorf("overpass: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, httputil.Retryable(errors.New(errors.ErrCodeRateLimited, "overpass rate limit"))
	case resp.StatusCode >= 500:
		return nil, httputil.Retryable(fmt.Errorf("overpass: status %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("overpass: status %d", resp.StatusCode)
	}
}

// overpassBBox renders a box in Overpass order: south,west,north,east.
func overpassBBox(b geo.BBox) string {
	return fmt.Sprintf("%.7f,%.7f,%.7f,%.7f", b.South, b.West, b.North, b.East)
}

func toPoints(coords []overpassCoord) []geo.Point {
	pts := make([]geo.Point, len(coords))
	for i, c := range coords {
		pts[i] = geo.Point{Lat: c.Lat, Lng: c.Lon}
	}
	return pts
}

// toFeature builds a feature, classifying closed rings as polygons.
func toFeature(coords []overpassCoord) Feature {
	pts := toPoints(coords)
	kind := KindLine
	if len(pts) >= 4 && pts[0] == pts[len(pts)-1] {
		kind = KindPolygon
	}
	return Feature{Kind: kind, Points: pts}
}

// Overpass JSON wire types.

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []overpassCoord   `json:"geometry"`
	Members  []overpassMember  `json:"members"`
}

type overpassMember struct {
	Type     string          `json:"type"`
	Role     string          `json:"role"`
	Geometry []overpassCoord `json:"geometry"`
}

type overpassCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
