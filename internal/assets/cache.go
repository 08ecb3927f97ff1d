package assets

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// LoadFunc resolves a cache key to a decoded image. Sources provide it.
type LoadFunc func(key string) (image.Image, error)

// Cache memoizes decoded scene images and parsed fonts for one run.
// Values handed out are shared: callers must treat them as read-only and
// copy before transforming. A key that fails to load is cached as a black
// placeholder so the failure is decoded (and warned about) once.
type Cache struct {
	mu       sync.Mutex
	images   map[string]*image.RGBA
	fonts    map[string]*opentype.Font
	fallback *opentype.Font

	width  int
	height int
	load   LoadFunc
	log    zerolog.Logger
}

func NewCache(width, height int, load LoadFunc, log zerolog.Logger) *Cache {
	return &Cache{
		images: make(map[string]*image.RGBA),
		fonts:  make(map[string]*opentype.Font),
		width:  width,
		height: height,
		load:   load,
		log:    log,
	}
}

// Image returns the scene image for key, resized to the output geometry.
// Load failures degrade to an opaque black placeholder with a warning.
func (c *Cache) Image(key string) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[key]; ok {
		return img
	}

	img := c.loadImage(key)
	c.images[key] = img
	return img
}

func (c *Cache) loadImage(key string) *image.RGBA {
	src, err := c.load(key)
	if err != nil {
		c.log.Warn().Str("image", key).Err(err).Msg("image unavailable, using black placeholder")
		return blackFrame(c.width, c.height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	if b := src.Bounds(); b.Dx() == c.width && b.Dy() == c.height {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	}
	return dst
}

// Font returns a face for the given font file and size. The parsed font is
// cached per path; the face itself is minted per call because faces carry
// rasterization state and are not safe to share across goroutines.
// An empty path selects the embedded fallback without a warning.
func (c *Cache) Font(path string, size float64) font.Face {
	fnt := c.font(path)
	if fnt == nil {
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		c.log.Warn().Str("font", path).Err(err).Msg("face creation failed, using bitmap fallback")
		return basicfont.Face7x13
	}
	return face
}

func (c *Cache) font(path string) *opentype.Font {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fnt, ok := c.fonts[path]; ok {
		return fnt
	}

	var fnt *opentype.Font
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			fnt, err = opentype.Parse(data)
		}
		if err != nil {
			c.log.Warn().Str("font", path).Err(err).Msg("font unavailable, using embedded fallback")
			fnt = nil
		}
	}
	if fnt == nil {
		fnt = c.embeddedFont()
	}
	c.fonts[path] = fnt
	return fnt
}

func (c *Cache) embeddedFont() *opentype.Font {
	if c.fallback == nil {
		fnt, err := opentype.Parse(goregular.TTF)
		if err != nil {
			c.log.Warn().Err(err).Msg("embedded font parse failed")
			return nil
		}
		c.fallback = fnt
	}
	return c.fallback
}

func blackFrame(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}
