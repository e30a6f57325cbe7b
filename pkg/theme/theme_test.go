package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

const validTheme = `
name = "Midnight Blue"
description = "Deep blues with warm highlights"

[colors]
bg = "#0B1026"
text = "#E8E3D3"
gradient = "#0B1026"
water = "#1B2A4A"
parks = "#13203D"
road_motorway = "#F5C518"
road_primary = "#E8E3D3"
road_secondary = "#B8B3A3"
road_tertiary = "#888377"
road_residential = "#585347"
road_default = "#888377"
subway = "#FF5722"
`

func writeTheme(t *testing.T, dir, id, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, id+".toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadValid(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "midnight_blue", validTheme)

	res := Load(dir, "midnight_blue")
	if res.Fallback {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	if res.Theme.Name != "Midnight Blue" {
		t.Errorf("Name = %q", res.Theme.Name)
	}
	if got := res.Theme.Color(SlotRoadMotorway); got != (color.RGBA{0xF5, 0xC5, 0x18, 0xFF}) {
		t.Errorf("road_motorway = %+v", got)
	}
}

func TestLoadMissingFallsBack(t *testing.T) {
	res := Load(t.TempDir(), "does_not_exist")
	if !res.Fallback {
		t.Fatal("expected fallback for missing theme")
	}
	if res.Reason == "" {
		t.Error("fallback should carry a reason")
	}
	// Every required slot must be populated in the fallback.
	for _, slot := range requiredSlots {
		if c := res.Theme.Color(slot); c.A == 0 {
			t.Errorf("fallback slot %s has zero color", slot)
		}
	}
}

func TestLoadMissingKeyFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "partial", `
name = "Partial"
[colors]
bg = "#FFFFFF"
text = "#000000"
`)
	res := Load(dir, "partial")
	if !res.Fallback {
		t.Fatal("theme with missing color keys should fall back")
	}
}

func TestLoadBadTOMLFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "broken", "name = [not toml")
	res := Load(dir, "broken")
	if !res.Fallback {
		t.Fatal("unparseable theme should fall back")
	}
}

func TestListSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "zeta", validTheme)
	writeTheme(t, dir, "alpha", validTheme)
	writeTheme(t, dir, "broken", "nope = [")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	infos := List(dir)
	if len(infos) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(infos))
	}
	// Sorted by identifier.
	if infos[0].ID != "alpha" || infos[1].ID != "zeta" {
		t.Errorf("List order: %v", infos)
	}
}

func TestListMissingDir(t *testing.T) {
	if infos := List(filepath.Join(t.TempDir(), "nope")); infos != nil {
		t.Errorf("List of missing dir = %v, want nil", infos)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#FF5722", want: color.RGBA{0xFF, 0x57, 0x22, 0xFF}},
		{in: "ff5722", want: color.RGBA{0xFF, 0x57, 0x22, 0xFF}},
		{in: "#FF572280", want: color.RGBA{0xFF, 0x57, 0x22, 0x80}},
		{in: "#FFF", wantErr: true},
		{in: "#GGGGGG", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHex(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHex(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultTheme(t *testing.T) {
	d := Default()
	if d.ID != "feature_based" {
		t.Errorf("ID = %q", d.ID)
	}
	if d.Color(SlotBG) != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("bg = %+v", d.Color(SlotBG))
	}
	// Unknown slot falls back to road_default rather than zero.
	if d.Color(Slot("bogus")) != d.Color(SlotRoadDefault) {
		t.Error("unknown slot should use road_default")
	}
}
