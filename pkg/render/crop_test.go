package render

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCropWide(t *testing.T) {
	// 2:1 window cropped to 3:4 portrait paper.
	v := View{MinX: 0, MinY: 0, MaxX: 2, MaxY: 1}
	got := Crop(v, 0.75, false)
	if !almost(got.Ratio(), 0.75) {
		t.Errorf("ratio = %v, want 0.75", got.Ratio())
	}
	if !almost(got.MinY, 0) || !almost(got.MaxY, 1) {
		t.Error("height should be untouched when trimming width")
	}
	cx, _ := got.Center()
	if !almost(cx, 1) {
		t.Errorf("crop not centered: cx = %v", cx)
	}
}

func TestCropTall(t *testing.T) {
	// A square window is wider than 9:16, so longitude gets trimmed.
	v := View{MinX: 10, MinY: 40, MaxX: 11, MaxY: 41}
	got := Crop(v, 9.0/16.0, false)
	if !almost(got.Ratio(), 9.0/16.0) {
		t.Errorf("ratio = %v", got.Ratio())
	}
	if !almost(got.MinY, 40) || !almost(got.MaxY, 41) {
		t.Error("height should be untouched when trimming width")
	}
	if !almost(got.Width(), 9.0/16.0) {
		t.Errorf("width = %v, want %v", got.Width(), 9.0/16.0)
	}
	cx, _ := got.Center()
	if !almost(cx, 10.5) {
		t.Errorf("crop not centered: cx = %v", cx)
	}
}

func TestCropExactWithinTolerance(t *testing.T) {
	// Ratio 0.77 vs target 0.75 is within 5%; exact bounds stay put.
	v := View{MinX: 0, MinY: 0, MaxX: 0.77, MaxY: 1}
	if got := Crop(v, 0.75, true); got != v {
		t.Errorf("exact view within tolerance was cropped: %+v", got)
	}
	// The same window in radius mode is always snapped.
	if got := Crop(v, 0.75, false); !almost(got.Ratio(), 0.75) {
		t.Errorf("radius mode ratio = %v", got.Ratio())
	}
}

func TestCropExactBeyondTolerance(t *testing.T) {
	v := View{MinX: 0, MinY: 0, MaxX: 1.5, MaxY: 1}
	got := Crop(v, 0.75, true)
	if !almost(got.Ratio(), 0.75) {
		t.Errorf("ratio = %v, want 0.75", got.Ratio())
	}
}

func TestCropIdempotent(t *testing.T) {
	v := View{MinX: -74.05, MinY: 40.6, MaxX: -73.9, MaxY: 40.9}
	once := Crop(v, 0.75, false)
	twice := Crop(once, 0.75, false)
	if !almost(once.MinX, twice.MinX) || !almost(once.MinY, twice.MinY) ||
		!almost(once.MaxX, twice.MaxX) || !almost(once.MaxY, twice.MaxY) {
		t.Errorf("crop not idempotent: %+v vs %+v", once, twice)
	}
}
