package render

import (
	"image"
	"image/color"
	"image/draw"
)

// FrameBuffer holds every rendered frame of a shot, preallocated up front
// so workers write into disjoint slots without coordination. Each slot is
// written exactly once.
type FrameBuffer struct {
	frames []*image.RGBA
	fps    int
	black  *image.RGBA
}

func NewFrameBuffer(frameTotal, width, height, fps int) *FrameBuffer {
	black := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(black, black.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return &FrameBuffer{
		frames: make([]*image.RGBA, frameTotal),
		fps:    fps,
		black:  black,
	}
}

// Len reports the number of frame slots.
func (b *FrameBuffer) Len() int {
	return len(b.frames)
}

// Set stores a finished frame. Callers partition indices among themselves,
// so no slot is ever assigned twice.
func (b *FrameBuffer) Set(i int, frame *image.RGBA) {
	b.frames[i] = frame
}

// Frame returns the frame at slot i, or nil when it was never rendered.
func (b *FrameBuffer) Frame(i int) *image.RGBA {
	if i < 0 || i >= len(b.frames) {
		return nil
	}
	return b.frames[i]
}

// FrameAt maps a timestamp to its frame. Timestamps outside the rendered
// range, and slots that were never filled, resolve to a black frame so the
// encoder always receives a complete picture.
func (b *FrameBuffer) FrameAt(t float64) *image.RGBA {
	idx := int(t * float64(b.fps))
	if idx < 0 || idx >= len(b.frames) || b.frames[idx] == nil {
		return b.black
	}
	return b.frames[idx]
}

// Missing returns the first unfilled slot. After a successful render pass
// there must be none.
func (b *FrameBuffer) Missing() (int, bool) {
	for i, f := range b.frames {
		if f == nil {
			return i, true
		}
	}
	return 0, false
}
