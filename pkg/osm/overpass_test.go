package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cartopress/cartopress/pkg/cache"
	"github.com/cartopress/cartopress/pkg/geo"
)

var testBox = geo.BBox{North: 40.76, South: 40.74, East: -73.98, West: -74.01}

const roadsResponse = `{
  "elements": [
    {
      "type": "way", "id": 1,
      "tags": {"highway": "motorway"},
      "geometry": [{"lat": 40.75, "lon": -74.0}, {"lat": 40.751, "lon": -73.999}]
    },
    {
      "type": "way", "id": 2,
      "tags": {"highway": "residential"},
      "geometry": [{"lat": 40.752, "lon": -74.001}, {"lat": 40.753, "lon": -74.002}]
    },
    {"type": "node", "id": 3, "tags": {}}
  ]
}`

const waterResponse = `{
  "elements": [
    {
      "type": "way", "id": 10,
      "tags": {"natural": "water"},
      "geometry": [
        {"lat": 40.75, "lon": -74.0}, {"lat": 40.751, "lon": -74.0},
        {"lat": 40.751, "lon": -73.999}, {"lat": 40.75, "lon": -74.0}
      ]
    },
    {
      "type": "relation", "id": 11,
      "members": [
        {"type": "way", "role": "outer", "geometry": [
          {"lat": 40.74, "lon": -74.0}, {"lat": 40.741, "lon": -74.0},
          {"lat": 40.741, "lon": -73.999}, {"lat": 40.74, "lon": -74.0}
        ]},
        {"type": "way", "role": "inner", "geometry": [
          {"lat": 40.7405, "lon": -74.0}
        ]}
      ]
    },
    {
      "type": "way", "id": 12,
      "tags": {"waterway": "riverbank"},
      "geometry": [{"lat": 40.745, "lon": -74.0}, {"lat": 40.746, "lon": -73.995}]
    }
  ]
}`

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(cache.NewNullCache(), WithEndpoint(srv.URL))
}

func TestFetchRoads(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		q := r.Form.Get("data")
		if !strings.Contains(q, `way["highway"]`) {
			t.Errorf("query missing highway selector: %s", q)
		}
		// Overpass bbox order is south,west,north,east.
		if !strings.Contains(q, "40.7400000,-74.0100000,40.7600000,-73.9800000") {
			t.Errorf("query bbox wrong: %s", q)
		}
		w.Write([]byte(roadsResponse))
	})

	g, err := c.FetchRoads(context.Background(), testBox)
	if err != nil {
		t.Fatalf("FetchRoads: %v", err)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("edges = %d, want 2 (nodes skipped)", len(g.Edges))
	}
	if g.Edges[0].Highway != "motorway" || g.Edges[1].Highway != "residential" {
		t.Errorf("edge tags = %q, %q", g.Edges[0].Highway, g.Edges[1].Highway)
	}
	if len(g.Edges[0].Points) != 2 {
		t.Errorf("edge geometry = %d points", len(g.Edges[0].Points))
	}
}

func TestFetchLayerWater(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(waterResponse))
	})

	fc, err := c.FetchLayer(context.Background(), testBox, LayerWater)
	if err != nil {
		t.Fatalf("FetchLayer: %v", err)
	}
	// way 10 + relation outer member + way 12; inner member skipped.
	if len(fc.Features) != 3 {
		t.Fatalf("features = %d, want 3", len(fc.Features))
	}
	if fc.Features[0].Kind != KindPolygon {
		t.Error("closed way should be a polygon")
	}
	if fc.Features[2].Kind != KindLine {
		t.Error("open riverbank way should be a line")
	}
}

func TestFetchLayerUnknown(t *testing.T) {
	c := NewClient(cache.NewNullCache())
	if _, err := c.FetchLayer(context.Background(), testBox, "buildings"); err == nil {
		t.Fatal("unknown layer should error")
	}
}

func TestFetchRoadsServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	t.Cleanup(srv.Close)

	// Short TTL client with null cache; retries still bounded.
	c := NewClient(cache.NewNullCache(), WithEndpoint(srv.URL))
	_, err := c.FetchRoads(context.Background(), testBox)
	if err == nil {
		t.Fatal("expected error from 5xx")
	}
	if calls < 2 {
		t.Errorf("5xx should be retried, got %d calls", calls)
	}
}

func TestQueryUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(roadsResponse))
	}))
	t.Cleanup(srv.Close)

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(backend, WithEndpoint(srv.URL), WithTTL(time.Hour))

	for i := 0; i < 2; i++ {
		if _, err := c.FetchRoads(context.Background(), testBox); err != nil {
			t.Fatalf("FetchRoads: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("server calls = %d, want 1 (second fetch cached)", calls)
	}
}

func TestGraphExtent(t *testing.T) {
	g := &Graph{Edges: []Edge{
		{Points: []geo.Point{{Lat: 40.0, Lng: -74.0}, {Lat: 41.0, Lng: -73.0}}},
		{Points: []geo.Point{{Lat: 39.5, Lng: -74.5}}},
	}}
	b, ok := g.Extent()
	if !ok {
		t.Fatal("extent should exist")
	}
	want := geo.BBox{North: 41, South: 39.5, East: -73, West: -74.5}
	if b != want {
		t.Errorf("extent = %+v, want %+v", b, want)
	}

	if _, ok := (&Graph{}).Extent(); ok {
		t.Error("empty graph should have no extent")
	}
}
