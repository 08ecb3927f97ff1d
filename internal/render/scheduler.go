package render

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storyreel/internal/assets"
	"github.com/ivlev/storyreel/internal/effects"
	"github.com/ivlev/storyreel/internal/overlay"
	"github.com/ivlev/storyreel/internal/timeline"
)

// Frames per batch never drop below this, so short shots do not dissolve
// into per-frame goroutines.
const minBatchSize = 30

// Options carries the geometry and pacing knobs the scheduler needs.
type Options struct {
	Width   int
	Height  int
	FPS     int
	Workers int
	// Scene duration to assume when the timeline has no segments for the
	// scene being rendered.
	DefaultSceneDuration float64
}

// Scheduler renders every frame of a shot into a FrameBuffer. Frames are
// split into contiguous batches and rendered by a bounded worker pool;
// workers share the image cache and effect engine, which are safe for
// concurrent use.
type Scheduler struct {
	Timeline  *timeline.Timeline
	Source    assets.ImageSource
	Cache     *assets.Cache
	Engine    *effects.Engine
	FontPath  string
	FontSize  float64
	Style     overlay.TextStyle
	Watermark *overlay.Watermark
	Opts      Options
	Log       zerolog.Logger
}

// Render produces the complete frame buffer for the timeline.
func (s *Scheduler) Render(ctx context.Context) (*FrameBuffer, error) {
	total := s.Timeline.TotalDuration()
	if total <= 0 {
		return nil, fmt.Errorf("timeline duration %.3f must be positive", total)
	}
	workers := s.Opts.Workers
	if workers < 1 {
		workers = 1
	}
	frameTotal := int(math.Ceil(total * float64(s.Opts.FPS)))
	batch := batchSize(frameTotal, workers)

	s.Log.Info().
		Int("frames", frameTotal).
		Int("batch_size", batch).
		Int("workers", workers).
		Float64("duration_sec", total).
		Msg("rendering frames")
	started := time.Now()

	buf := NewFrameBuffer(frameTotal, s.Opts.Width, s.Opts.Height, s.Opts.FPS)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < frameTotal; lo += batch {
		lo := lo
		hi := lo + batch
		if hi > frameTotal {
			hi = frameTotal
		}
		g.Go(func() error {
			return s.renderBatch(gctx, buf, lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("frame render: %w", err)
	}
	if i, missing := buf.Missing(); missing {
		return nil, fmt.Errorf("frame %d was never rendered", i)
	}

	elapsed := time.Since(started)
	s.Log.Info().
		Dur("elapsed", elapsed).
		Float64("fps_effective", float64(frameTotal)/elapsed.Seconds()).
		Msg("frames rendered")
	return buf, nil
}

func (s *Scheduler) renderBatch(ctx context.Context, buf *FrameBuffer, lo, hi int) error {
	face := s.Cache.Font(s.FontPath, s.FontSize)
	for i := lo; i < hi; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		buf.Set(i, s.renderFrame(float64(i)/float64(s.Opts.FPS), face))
	}
	return nil
}

// renderFrame builds the frame for timestamp t: scene image under its
// camera move, then subtitle and watermark on top.
func (s *Scheduler) renderFrame(t float64, face font.Face) *image.RGBA {
	scene, start, end := s.sceneWindowAt(t)
	progress := (t - start) / math.Max(end-start, 1e-9)
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	src := s.Cache.Image(s.Source.SceneKey(scene))
	frame := s.Engine.Apply(src, progress, effects.ForScene(scene), s.Opts.Width, s.Opts.Height)

	if text := s.Timeline.TextAt(t); text != "" {
		overlay.DrawSubtitle(frame, text, face, s.Style)
	}
	if s.Watermark != nil {
		s.Watermark.Draw(frame)
	}
	return frame
}

// sceneWindowAt resolves which scene owns timestamp t and the window its
// camera move runs over. Gaps between segments fall back to scene 1, and a
// scene with no segments at all gets a synthetic window so progress stays
// defined.
func (s *Scheduler) sceneWindowAt(t float64) (scene int, start, end float64) {
	seg, ok := s.Timeline.SegmentAt(t)
	scene = seg.Scene
	if !ok {
		scene = 1
	}
	start, end, ok = s.Timeline.SceneSpan(scene)
	if !ok {
		start, end = 0, s.Opts.DefaultSceneDuration
	}
	if end <= start {
		end = start + s.Opts.DefaultSceneDuration
	}
	return scene, start, end
}

func batchSize(frameTotal, workers int) int {
	size := frameTotal / (workers * 4)
	if size < minBatchSize {
		size = minBatchSize
	}
	return size
}
