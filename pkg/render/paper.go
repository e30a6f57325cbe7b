package render

import (
	"fmt"
	"sort"

	"github.com/cartopress/cartopress/pkg/errors"
)

// Dimensions is a physical output size in inches.
type Dimensions struct {
	Width  float64
	Height float64
}

// Ratio is width over height.
func (d Dimensions) Ratio() float64 { return d.Width / d.Height }

// DefaultPaper is used when no size is requested.
const DefaultPaper = "3:4"

// paperSizes maps the supported aspect-ratio names to print dimensions.
// DIN is the ISO 216 sqrt(2) ratio at 12 inches wide.
var paperSizes = map[string]Dimensions{
	"1:1":    {12, 12},
	"2:3":    {12, 18},
	"3:4":    {12, 16},
	"4:5":    {12, 15},
	"DIN":    {12, 16.968},
	"9:16":   {9, 16},
	"9:19.5": {9, 19.5},
}

// PaperSizes lists the supported size names, sorted.
func PaperSizes() []string {
	names := make([]string, 0, len(paperSizes))
	for name := range paperSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPaper resolves a size name to print dimensions. Empty and
// unknown names both resolve to the default 3:4. The third return
// reports whether the requested name was recognized, so callers can
// warn about the substitution.
func LookupPaper(name string) (string, Dimensions, bool) {
	if name == "" {
		name = DefaultPaper
	}
	if d, ok := paperSizes[name]; ok {
		return name, d, true
	}
	return DefaultPaper, paperSizes[DefaultPaper], false
}

// validDPIs are the supported raster densities: screen, draft and print.
var validDPIs = []int{72, 150, 300}

// DefaultDPI is the print-quality default.
const DefaultDPI = 300

// ValidateDPI checks a requested density. Zero yields the default.
func ValidateDPI(dpi int) (int, error) {
	if dpi == 0 {
		return DefaultDPI, nil
	}
	for _, v := range validDPIs {
		if dpi == v {
			return dpi, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidDPI, "unsupported DPI %d (valid: %v)", dpi, validDPIs)
}

// PixelSize converts print dimensions to raster dimensions at a density.
func PixelSize(d Dimensions, dpi int) (w, h int) {
	return int(d.Width*float64(dpi) + 0.5), int(d.Height*float64(dpi) + 0.5)
}

// String renders dimensions for logs, e.g. "12x16in".
func (d Dimensions) String() string {
	return fmt.Sprintf("%gx%gin", d.Width, d.Height)
}
