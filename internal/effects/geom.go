package effects

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scaleInto resamples src over the whole of dst.
func scaleInto(dst *image.RGBA, src image.Image) {
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// cropInto copies the dst-sized window of src starting at (x0, y0).
// Both images must have zero-origin bounds; the window must fit in src.
func cropInto(dst, src *image.RGBA, x0, y0 int) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for row := 0; row < h; row++ {
		si := src.PixOffset(x0, y0+row)
		di := dst.PixOffset(0, row)
		copy(dst.Pix[di:di+w*4], src.Pix[si:si+w*4])
	}
}

// placeCentered draws src onto the middle of dst without scaling.
func placeCentered(dst, src *image.RGBA) {
	xOff := (dst.Rect.Dx() - src.Rect.Dx()) / 2
	yOff := (dst.Rect.Dy() - src.Rect.Dy()) / 2
	target := image.Rect(xOff, yOff, xOff+src.Rect.Dx(), yOff+src.Rect.Dy())
	draw.Draw(dst, target, src, src.Rect.Min, draw.Src)
}

// rotateInto renders src rotated by angle radians about its center into
// dst. Pixels falling outside the source stay as dst had them.
func rotateInto(dst, src *image.RGBA, angle float64) {
	cx := float64(src.Rect.Dx()) / 2
	cy := float64(src.Rect.Dy()) / 2

	sin, cos := math.Sincos(angle)
	m := f64.Aff3{
		cos, -sin, cx - cx*cos + cy*sin,
		sin, cos, cy - cx*sin - cy*cos,
	}
	xdraw.ApproxBiLinear.Transform(dst, m, src, src.Bounds(), xdraw.Src, nil)
}
