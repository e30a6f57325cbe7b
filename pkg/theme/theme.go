// Package theme loads and validates poster color palettes.
//
// Themes are TOML files in a themes directory, one file per theme, named
// <id>.toml. Each file carries optional display metadata and a flat table
// of named colors. A missing or corrupt theme never fails a run: Load
// reports an explicit fallback to the built-in default palette instead.
package theme

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Slot names a color in the palette. Road slots are what the classifier
// hands to the compositor.
type Slot string

// Palette slots.
const (
	SlotBG              Slot = "bg"
	SlotText            Slot = "text"
	SlotGradient        Slot = "gradient"
	SlotWater           Slot = "water"
	SlotParks           Slot = "parks"
	SlotRoadMotorway    Slot = "road_motorway"
	SlotRoadPrimary     Slot = "road_primary"
	SlotRoadSecondary   Slot = "road_secondary"
	SlotRoadTertiary    Slot = "road_tertiary"
	SlotRoadResidential Slot = "road_residential"
	SlotRoadDefault     Slot = "road_default"
	SlotSubway          Slot = "subway"
)

// requiredSlots must all be present for a theme file to be usable.
var requiredSlots = []Slot{
	SlotBG, SlotText, SlotGradient, SlotWater, SlotParks,
	SlotRoadMotorway, SlotRoadPrimary, SlotRoadSecondary,
	SlotRoadTertiary, SlotRoadResidential, SlotRoadDefault,
	SlotSubway,
}

// Theme is a resolved, immutable palette. It is loaded once per generation
// run and passed by value to every rendering stage that needs styling.
type Theme struct {
	ID          string
	Name        string
	Description string

	colors map[Slot]color.RGBA
}

// Color returns the color for a slot. Unknown slots fall back to the
// road_default color so a bad slot never panics mid-render.
func (t Theme) Color(slot Slot) color.RGBA {
	if c, ok := t.colors[slot]; ok {
		return c
	}
	return t.colors[SlotRoadDefault]
}

// Info is a theme listing entry for discovery surfaces.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Default returns the embedded fallback theme: a grayscale, high-contrast
// palette that is always available.
func Default() Theme {
	return Theme{
		ID:          "feature_based",
		Name:        "Feature-Based Shading",
		Description: "Grayscale palette shading roads by hierarchy",
		colors: map[Slot]color.RGBA{
			SlotBG:              {0xFF, 0xFF, 0xFF, 0xFF},
			SlotText:            {0x00, 0x00, 0x00, 0xFF},
			SlotGradient:        {0xFF, 0xFF, 0xFF, 0xFF},
			SlotWater:           {0xC0, 0xC0, 0xC0, 0xFF},
			SlotParks:           {0xF0, 0xF0, 0xF0, 0xFF},
			SlotRoadMotorway:    {0x0A, 0x0A, 0x0A, 0xFF},
			SlotRoadPrimary:     {0x1A, 0x1A, 0x1A, 0xFF},
			SlotRoadSecondary:   {0x2A, 0x2A, 0x2A, 0xFF},
			SlotRoadTertiary:    {0x3A, 0x3A, 0x3A, 0xFF},
			SlotRoadResidential: {0x4A, 0x4A, 0x4A, 0xFF},
			SlotRoadDefault:     {0x3A, 0x3A, 0x3A, 0xFF},
			SlotSubway:          {0xFF, 0x57, 0x22, 0xFF},
		},
	}
}

// themeFile is the on-disk TOML shape.
type themeFile struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	Colors      map[string]string `toml:"colors"`
}

// Resolution reports how a theme identifier was resolved. When Fallback is
// true the returned Theme is the built-in default and Reason explains why
// the requested theme was unusable.
type Resolution struct {
	Theme    Theme
	Fallback bool
	Reason   string
}

// Load resolves a theme identifier against dir. It never returns an error:
// a missing, unreadable, or invalid theme file resolves to the default
// palette with the reason recorded in the Resolution.
func Load(dir, id string) Resolution {
	t, err := read(dir, id)
	if err != nil {
		d := Default()
		if id == d.ID {
			// The default is built in; a disk copy is optional.
			return Resolution{Theme: d}
		}
		return Resolution{Theme: d, Fallback: true, Reason: err.Error()}
	}
	return Resolution{Theme: t}
}

// read parses and validates a single theme file.
func read(dir, id string) (Theme, error) {
	path := filepath.Join(dir, id+".toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %q: %w", id, err)
	}

	var tf themeFile
	if err := toml.Unmarshal(data, &tf); err != nil {
		return Theme{}, fmt.Errorf("theme %q: %w", id, err)
	}

	colors := make(map[Slot]color.RGBA, len(requiredSlots))
	for _, slot := range requiredSlots {
		raw, ok := tf.Colors[string(slot)]
		if !ok {
			return Theme{}, fmt.Errorf("theme %q: missing color %q", id, slot)
		}
		c, err := ParseHex(raw)
		if err != nil {
			return Theme{}, fmt.Errorf("theme %q: color %q: %w", id, slot, err)
		}
		colors[slot] = c
	}

	name := tf.Name
	if name == "" {
		name = id
	}
	return Theme{
		ID:          id,
		Name:        name,
		Description: tf.Description,
		colors:      colors,
	}, nil
}

// List returns all usable themes in dir, sorted by identifier. Corrupt
// entries are skipped; a missing directory yields an empty list.
func List(dir string) []Info {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".toml")
		t, err := read(dir, id)
		if err != nil {
			continue // corrupt entries are not listed
		}
		infos = append(infos, Info{ID: id, Name: t.Name, Description: t.Description})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// ParseHex decodes a #RRGGBB or #RRGGBBAA color string.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c color.RGBA
	c.A = 0xFF
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return c, nil
}
