package overlay

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// TextStyle carries the caption appearance fixed for a run.
type TextStyle struct {
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth int
}

// DrawSubtitle burns text into the frame: centered horizontally, top edge
// anchored at two thirds of frame height. The stroke pass renders the glyph
// run at every offset in [-w,w] x [-w,w] except the origin, then the fill
// pass renders once on top. Blank text leaves the frame untouched.
func DrawSubtitle(frame *image.RGBA, text string, face font.Face, style TextStyle) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	d := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(style.Stroke),
		Face: face,
	}

	bounds := frame.Bounds()
	width := d.MeasureString(text)
	x := (fixed.I(bounds.Dx()) - width) / 2
	y := fixed.I(bounds.Dy()*2/3) + face.Metrics().Ascent

	for dy := -style.StrokeWidth; dy <= style.StrokeWidth; dy++ {
		for dx := -style.StrokeWidth; dx <= style.StrokeWidth; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.Point26_6{X: x + fixed.I(dx), Y: y + fixed.I(dy)}
			d.DrawString(text)
		}
	}

	d.Src = image.NewUniform(style.Fill)
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)
}

// ParseHexColor reads "#RRGGBB" or "#RGB" (case-insensitive, leading '#'
// optional) and falls back to the given color on anything else.
func ParseHexColor(s string, fallback color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}

	switch len(s) {
	case 6:
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	case 3:
		r := uint8(v >> 8 & 0xF)
		g := uint8(v >> 4 & 0xF)
		b := uint8(v & 0xF)
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 255}
	default:
		return fallback
	}
}
