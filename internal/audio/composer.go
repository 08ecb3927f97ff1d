package audio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storyreel/internal/timeline"
)

const maxLoadWorkers = 8

// Composer builds the audio track for a shot: one voice clip per scene,
// placed at the scene's start, over looped background music. Clips that
// cannot be loaded are skipped with a warning, so a shot without audio
// assets still produces a (silent) track of the full duration.
type Composer struct {
	loader *Loader
	log    zerolog.Logger
}

func NewComposer(sampleRate, channels int, log zerolog.Logger) *Composer {
	return &Composer{
		loader: NewLoader(sampleRate, channels, log),
		log:    log,
	}
}

// Compose mixes voice clips and background music into a track spanning
// total seconds exactly.
func (c *Composer) Compose(ctx context.Context, tl *timeline.Timeline, voicePaths map[int]string, bgPath string, bgVolume, total float64) (*Track, error) {
	if total <= 0 {
		return nil, fmt.Errorf("audio duration %.3f must be positive", total)
	}
	out := NewSilence(c.loader.sampleRate, c.loader.channels, total)

	scenes := tl.Scenes()
	clips := make([]*Track, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	limit := len(scenes)
	if limit > maxLoadWorkers {
		limit = maxLoadWorkers
	}
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, scene := range scenes {
		path, ok := voicePaths[scene]
		if !ok {
			continue
		}
		i, scene := i, scene
		g.Go(func() error {
			t, err := c.loader.Load(gctx, path)
			if err != nil {
				c.log.Warn().Int("scene", scene).Str("path", path).Err(err).Msg("voice clip skipped")
				return nil
			}
			clips[i] = t
			return nil
		})
	}
	// Workers only propagate context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mixed := 0
	for i, scene := range scenes {
		if clips[i] == nil {
			continue
		}
		start, _, ok := tl.SceneSpan(scene)
		if !ok {
			continue
		}
		out.MixAt(clips[i], start)
		mixed++
	}
	c.log.Info().Int("voice_clips", mixed).Float64("duration_sec", total).Msg("voice track mixed")

	if bgPath != "" {
		bg, err := c.loader.Load(ctx, bgPath)
		if err != nil {
			c.log.Warn().Str("path", bgPath).Err(err).Msg("background music skipped")
		} else {
			bg.Scale(bgVolume)
			out.MixAt(LoopTo(bg, total), 0)
			c.log.Debug().Str("path", bgPath).Float64("volume", bgVolume).Msg("background music mixed")
		}
	}
	return out, nil
}
