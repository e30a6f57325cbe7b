// Package fonts loads the typefaces used by the poster overlay.
//
// The primary family is Roboto in three weights, located on the host with
// go-findfont. When any weight is missing the whole set falls back to the
// embedded Go Mono faces from golang.org/x/image, so text rendering can
// never abort a run for lack of font assets.
package fonts

import (
	"os"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
)

// Weight selects one of the loaded typefaces.
type Weight int

const (
	Bold Weight = iota
	Regular
	Light
)

// primaryFiles are the font files looked up for the primary family.
var primaryFiles = map[Weight]string{
	Bold:    "Roboto-Bold.ttf",
	Regular: "Roboto-Regular.ttf",
	Light:   "Roboto-Light.ttf",
}

// Set is an immutable collection of parsed typefaces for one run.
type Set struct {
	fonts    map[Weight]*truetype.Font
	fallback bool
	reason   string
}

// Fallback reports whether the set is the embedded monospace fallback, and
// why the primary family was unavailable.
func (s *Set) Fallback() (bool, string) {
	return s.fallback, s.reason
}

// Face returns a rendering face at the given pixel size. gg draws faces at
// 72 DPI, so the point size equals the pixel size here.
func (s *Set) Face(w Weight, sizePx float64) font.Face {
	f, ok := s.fonts[w]
	if !ok {
		f = s.fonts[Regular]
	}
	return truetype.NewFace(f, &truetype.Options{Size: sizePx, DPI: 72})
}

// Load locates and parses the primary family, falling back to the embedded
// monospace set on any miss. It never returns an error.
func Load() *Set {
	fonts := make(map[Weight]*truetype.Font, len(primaryFiles))
	for weight, file := range primaryFiles {
		path, err := findfont.Find(file)
		if err != nil {
			return fallbackSet("font not found: " + file)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fallbackSet("font unreadable: " + path)
		}
		f, err := truetype.Parse(data)
		if err != nil {
			return fallbackSet("font unparseable: " + path)
		}
		fonts[weight] = f
	}
	return &Set{fonts: fonts}
}

// fallbackSet builds the embedded Go Mono set. The embedded TTFs are known
// good, so parse failures here are impossible in practice; if one ever
// happens the face map entry is simply absent and Face substitutes Regular.
func fallbackSet(reason string) *Set {
	fonts := make(map[Weight]*truetype.Font, 3)
	if f, err := truetype.Parse(gomonobold.TTF); err == nil {
		fonts[Bold] = f
	}
	if f, err := truetype.Parse(gomono.TTF); err == nil {
		fonts[Regular] = f
		fonts[Light] = f
	}
	return &Set{fonts: fonts, fallback: true, reason: reason}
}
