package overlay

import (
	"image"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
)

// Watermark stamps a QR code into the bottom-right corner of every frame.
// The code is rendered once per run.
type Watermark struct {
	img    *image.RGBA
	margin int
}

func NewWatermark(url string, size, margin int) (*Watermark, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	src := q.Image(size)
	img := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	return &Watermark{img: img, margin: margin}, nil
}

func (w *Watermark) Draw(frame *image.RGBA) {
	fb := frame.Bounds()
	wb := w.img.Bounds()

	x := fb.Max.X - wb.Dx() - w.margin
	y := fb.Max.Y - wb.Dy() - w.margin
	if x < fb.Min.X {
		x = fb.Min.X
	}
	if y < fb.Min.Y {
		y = fb.Min.Y
	}

	draw.Draw(frame, image.Rect(x, y, x+wb.Dx(), y+wb.Dy()), w.img, wb.Min, draw.Over)
}
