package render

import (
	"image"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Blur-fade parameters. The effect is bounded at 50 bands so output
// cost stays flat regardless of raster size.
const (
	blurFadeFraction = 0.35
	blurSigma        = 12
	maxBlurBands     = 50
)

// DefaultGrainIntensity matches the film-grain strength of the default
// pipeline; callers can disable grain with zero.
const DefaultGrainIntensity = 0.12

// grainSeed keeps grain deterministic so identical inputs produce
// byte-identical posters.
const grainSeed = 42

// BlurFade blends a blurred copy over the top portion of the image,
// fading from full blur at the edge to sharp at the cutoff. Used by
// the lockscreen format to soften the map under the clock. Runs before
// grain so the noise stays crisp everywhere.
func BlurFade(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	blurred := imaging.Blur(src, blurSigma)

	h := src.Bounds().Dy()
	w := src.Bounds().Dx()
	fadeH := int(float64(h) * blurFadeFraction)
	if fadeH == 0 {
		return src
	}
	bands := fadeH
	if bands > maxBlurBands {
		bands = maxBlurBands
	}

	for b := 0; b < bands; b++ {
		y0 := b * fadeH / bands
		y1 := (b + 1) * fadeH / bands
		// Full blur at the top edge, fading out toward the cutoff.
		alpha := 1 - float64(b)/float64(bands)
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := src.PixOffset(x, y)
				for ch := 0; ch < 3; ch++ {
					s := float64(src.Pix[i+ch])
					bl := float64(blurred.Pix[i+ch])
					src.Pix[i+ch] = uint8(s + (bl-s)*alpha)
				}
			}
		}
	}
	return src
}

// Grain adds zero-mean Gaussian noise to every color channel. Intensity
// is the noise standard deviation as a fraction of full scale; values
// are clipped to the valid range. Alpha is untouched.
func Grain(img image.Image, intensity float64) *image.NRGBA {
	out := imaging.Clone(img)
	if intensity <= 0 {
		return out
	}
	rng := rand.New(rand.NewSource(grainSeed))
	sigma := intensity * 255
	for i := 0; i < len(out.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			v := float64(out.Pix[i+ch]) + rng.NormFloat64()*sigma
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.Pix[i+ch] = uint8(v)
		}
	}
	return out
}
