package effects

import (
	"image"
	"math"

	"github.com/ivlev/storyreel/internal/system"
)

// Kind identifies one Ken Burns camera move.
type Kind string

const (
	ZoomIn       Kind = "zoom_in"
	ZoomOut      Kind = "zoom_out"
	PanLeft      Kind = "pan_left"
	PanRight     Kind = "pan_right"
	PanUp        Kind = "pan_up"
	PanDown      Kind = "pan_down"
	ZoomPanLeft  Kind = "zoom_pan_left"
	ZoomPanRight Kind = "zoom_pan_right"
	ZoomPanUp    Kind = "zoom_pan_up"
	ZoomPanDown  Kind = "zoom_pan_down"
	RotateZoom   Kind = "rotate_zoom"
	Spiral       Kind = "spiral"
)

// Sequence is the fixed cyclic assignment of moves to scenes, ordered so
// adjacent scenes never see the same move twice.
var Sequence = []Kind{
	ZoomIn, PanLeft, ZoomPanRight, PanUp, ZoomOut,
	PanDown, ZoomPanLeft, Spiral, PanRight, ZoomPanUp,
	RotateZoom, ZoomIn, PanLeft, ZoomPanDown, PanUp,
}

// ForScene maps a 1-based scene number to its move.
func ForScene(scene int) Kind {
	idx := (scene - 1) % len(Sequence)
	if idx < 0 {
		idx += len(Sequence)
	}
	return Sequence[idx]
}

// Engine renders camera moves. The pool recycles the zoom and rotation
// intermediates; returned frames are always freshly allocated and owned by
// the caller.
type Engine struct {
	pool *system.ImagePool
}

func NewEngine(pool *system.ImagePool) *Engine {
	if pool == nil {
		pool = system.NewImagePool()
	}
	return &Engine{pool: pool}
}

// Apply renders one frame of the move over src at the given progress.
// The result is always exactly width x height. Progress outside [0,1]
// clamps; an unknown kind renders as ZoomIn.
func (e *Engine) Apply(src image.Image, progress float64, kind Kind, width, height int) *image.RGBA {
	eased := easeInOutCubic(clamp(progress, 0, 1))

	if kind == RotateZoom {
		return e.rotateZoom(src, eased, width, height)
	}

	fw, fh := float64(width), float64(height)

	var zoom float64
	var offset func(zw, zh int) (int, int)

	centered := func(zw, zh int) (int, int) {
		return (zw - width) / 2, (zh - height) / 2
	}

	switch kind {
	case ZoomOut:
		zoom = lerp(1.3, 1.0, eased)
		offset = centered
	case PanLeft:
		zoom = 1.2
		pan := fw * 0.3
		offset = func(zw, zh int) (int, int) {
			return (zw - width) - int(eased*pan), (zh - height) / 2
		}
	case PanRight:
		zoom = 1.2
		pan := fw * 0.3
		offset = func(zw, zh int) (int, int) {
			return int(eased * pan), (zh - height) / 2
		}
	case PanUp:
		zoom = 1.2
		pan := fh * 0.3
		offset = func(zw, zh int) (int, int) {
			return (zw - width) / 2, (zh - height) - int(eased*pan)
		}
	case PanDown:
		zoom = 1.2
		pan := fh * 0.3
		offset = func(zw, zh int) (int, int) {
			return (zw - width) / 2, int(eased * pan)
		}
	case ZoomPanLeft:
		zoom = lerp(1.0, 1.25, eased)
		pan := fw * 0.2
		offset = func(zw, zh int) (int, int) {
			return (zw-width)/2 - int(eased*pan), (zh - height) / 2
		}
	case ZoomPanRight:
		zoom = lerp(1.0, 1.25, eased)
		pan := fw * 0.2
		offset = func(zw, zh int) (int, int) {
			return (zw-width)/2 + int(eased*pan), (zh - height) / 2
		}
	case ZoomPanUp:
		zoom = lerp(1.0, 1.25, eased)
		pan := fh * 0.2
		offset = func(zw, zh int) (int, int) {
			return (zw - width) / 2, (zh-height)/2 - int(eased*pan)
		}
	case ZoomPanDown:
		zoom = lerp(1.0, 1.25, eased)
		pan := fh * 0.2
		offset = func(zw, zh int) (int, int) {
			return (zw - width) / 2, (zh-height)/2 + int(eased*pan)
		}
	case Spiral:
		zoom = lerp(1.0, 1.4, eased)
		angle := eased * 2 * math.Pi
		radius := math.Min(fw, fh) * 0.1 * eased
		offset = func(zw, zh int) (int, int) {
			return (zw-width)/2 + int(math.Cos(angle)*radius),
				(zh-height)/2 + int(math.Sin(angle)*radius)
		}
	default: // ZoomIn and anything unrecognized
		zoom = lerp(1.0, 1.3, eased)
		offset = centered
	}

	zw, zh := int(fw*zoom), int(fh*zoom)
	// lerp down to 1.0 can land one pixel short of the target after truncation
	if zw < width {
		zw = width
	}
	if zh < height {
		zh = height
	}

	scaled := e.pool.Get(image.Rect(0, 0, zw, zh))
	scaleInto(scaled, src)

	x, y := offset(zw, zh)
	x = clampInt(x, 0, zw-width)
	y = clampInt(y, 0, zh-height)

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	cropInto(out, scaled, x, y)
	e.pool.Put(scaled)
	return out
}

// rotateZoom zooms onto an oversized square canvas, tilts it by at most
// three degrees (rising and falling with sin(eased*pi)), then center-crops
// the target window.
func (e *Engine) rotateZoom(src image.Image, eased float64, width, height int) *image.RGBA {
	zoom := lerp(1.1, 1.3, eased)
	angle := math.Sin(eased*math.Pi) * 3 * math.Pi / 180

	zw, zh := int(float64(width)*zoom), int(float64(height)*zoom)
	side := int(math.Max(float64(width), float64(height)) * zoom * 1.5)

	zoomed := e.pool.Get(image.Rect(0, 0, zw, zh))
	scaleInto(zoomed, src)

	canvas := e.pool.GetCleared(image.Rect(0, 0, side, side))
	placeCentered(canvas, zoomed)
	e.pool.Put(zoomed)

	rotated := e.pool.GetCleared(image.Rect(0, 0, side, side))
	rotateInto(rotated, canvas, angle)
	e.pool.Put(canvas)

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	cropInto(out, rotated, (side-width)/2, (side-height)/2)
	e.pool.Put(rotated)
	return out
}
