package engine

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storyreel/internal/assets"
	"github.com/ivlev/storyreel/internal/audio"
	"github.com/ivlev/storyreel/internal/config"
	"github.com/ivlev/storyreel/internal/effects"
	"github.com/ivlev/storyreel/internal/logging"
	"github.com/ivlev/storyreel/internal/overlay"
	"github.com/ivlev/storyreel/internal/render"
	"github.com/ivlev/storyreel/internal/system"
	"github.com/ivlev/storyreel/internal/timeline"
	"github.com/ivlev/storyreel/internal/video"
)

const audioChannels = 2

// Project drives one shot from timeline to finished video: preload scene
// images, render all frames, mix the audio track, hand both to the encoder.
type Project struct {
	Config     *config.Config
	Shot       int
	Timeline   *timeline.Timeline
	Source     assets.ImageSource
	Encoder    video.VideoEncoder
	OutputPath string

	log zerolog.Logger
}

func NewProject(cfg *config.Config, shot int, tl *timeline.Timeline, src assets.ImageSource, enc video.VideoEncoder, outputPath string) *Project {
	return &Project{
		Config:     cfg,
		Shot:       shot,
		Timeline:   tl,
		Source:     src,
		Encoder:    enc,
		OutputPath: outputPath,
		log:        logging.WithComponent("engine"),
	}
}

func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()
	var renderEnd, composeEnd time.Time

	if err := p.Config.Validate(); err != nil {
		return err
	}
	total := p.Timeline.TotalDuration()
	if total <= 0 {
		return fmt.Errorf("timeline for shot %d has no duration", p.Shot)
	}

	workers := system.RenderWorkers(p.Config.Workers)
	frameTotal := int(math.Ceil(total * float64(p.Config.FPS)))
	system.EstimateFrameBudget(frameTotal, p.Config.Width, p.Config.Height, p.log)

	scenes := p.Timeline.Scenes()
	p.log.Info().
		Int("shot", p.Shot).
		Int("scenes", len(scenes)).
		Int("frames", frameTotal).
		Int("workers", workers).
		Float64("duration_sec", total).
		Msg("project started")

	cache := assets.NewCache(p.Config.Width, p.Config.Height, p.Source.LoadKey, logging.WithComponent("cache"))
	p.preload(cache, scenes, workers)

	var watermark *overlay.Watermark
	if p.Config.Watermark.URL != "" {
		wm, err := overlay.NewWatermark(p.Config.Watermark.URL, p.Config.Watermark.Size, p.Config.Watermark.Margin)
		if err != nil {
			p.log.Warn().Err(err).Msg("watermark skipped")
		} else {
			watermark = wm
		}
	}

	sched := &render.Scheduler{
		Timeline:  p.Timeline,
		Source:    p.Source,
		Cache:     cache,
		Engine:    effects.NewEngine(system.NewImagePool()),
		FontPath:  p.Config.Subtitle.FontPath,
		FontSize:  p.Config.Subtitle.FontSize,
		Style:     subtitleStyle(p.Config.Subtitle),
		Watermark: watermark,
		Opts: render.Options{
			Width:                p.Config.Width,
			Height:               p.Config.Height,
			FPS:                  p.Config.FPS,
			Workers:              workers,
			DefaultSceneDuration: p.Config.DefaultSceneDuration,
		},
		Log: logging.WithComponent("render"),
	}
	buf, err := sched.Render(ctx)
	if err != nil {
		return err
	}
	renderEnd = time.Now()

	voicePaths := make(map[int]string, len(scenes))
	for _, scene := range scenes {
		voicePaths[scene] = assets.SceneVoicePath(p.Config.AssetsDir, p.Shot, scene)
	}
	composer := audio.NewComposer(p.Config.SampleRate, audioChannels, logging.WithComponent("audio"))
	track, err := composer.Compose(ctx, p.Timeline, voicePaths, p.Config.BackgroundAudio, p.Config.BackgroundVolume, total)
	if err != nil {
		return fmt.Errorf("audio mix: %w", err)
	}
	composeEnd = time.Now()

	opts := video.EncodeOptions{
		Width:    p.Config.Width,
		Height:   p.Config.Height,
		FPS:      p.Config.FPS,
		Duration: total,
		Encoder:  p.Config.VideoEncoder,
		Quality:  p.Config.Quality,
	}
	if err := p.Encoder.Encode(ctx, buf.FrameAt, track, p.OutputPath, opts); err != nil {
		// ffmpeg оставляет недописанный файл при ошибке
		os.Remove(p.OutputPath)
		return fmt.Errorf("encode: %w", err)
	}

	totalTime := time.Since(startTime)
	renderTime := renderEnd.Sub(startTime)
	composeTime := composeEnd.Sub(renderEnd)
	encodeTime := time.Since(composeEnd)
	fps := float64(frameTotal) / totalTime.Seconds()

	p.log.Info().
		Str("output", p.OutputPath).
		Dur("elapsed", totalTime).
		Float64("fps_effective", fps).
		Msg("project finished")

	if p.Config.ShowStats {
		p.printStats(frameTotal, totalTime, renderTime, composeTime, encodeTime, fps)
	}
	return nil
}

// preload warms the image cache for every scene before frame workers start,
// so decode errors surface once, up front.
func (p *Project) preload(cache *assets.Cache, scenes []int, workers int) {
	started := time.Now()
	var g errgroup.Group
	g.SetLimit(workers)
	for _, scene := range scenes {
		key := p.Source.SceneKey(scene)
		g.Go(func() error {
			cache.Image(key)
			return nil
		})
	}
	g.Wait()
	p.log.Debug().Int("images", len(scenes)).Dur("elapsed", time.Since(started)).Msg("scene images preloaded")
}

func (p *Project) printStats(frameTotal int, totalTime, renderTime, composeTime, encodeTime time.Duration, fps float64) {
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Audio Mix: %.2fs\n"+
			"Encoding (GPU/CPU): %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, totalTime.Seconds(), renderTime.Seconds(), composeTime.Seconds(), encodeTime.Seconds(), fps,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Shot: %d | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		p.Shot,
		frameTotal,
		totalTime.Seconds(),
		renderTime.Seconds(),
		encodeTime.Seconds(),
		fps,
	)
	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		p.log.Warn().Err(err).Msg("benchmark.log not written")
	}
}

func subtitleStyle(s config.Style) overlay.TextStyle {
	return overlay.TextStyle{
		Fill:        overlay.ParseHexColor(s.FillColor, color.White),
		Stroke:      overlay.ParseHexColor(s.StrokeColor, color.Black),
		StrokeWidth: s.StrokeWidth,
	}
}
