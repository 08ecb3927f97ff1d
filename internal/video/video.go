package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ivlev/storyreel/internal/audio"
)

// FrameFunc resolves a timestamp to a finished frame.
type FrameFunc func(t float64) *image.RGBA

type EncodeOptions struct {
	Width    int
	Height   int
	FPS      int
	Duration float64
	Encoder  string
	Quality  int
}

// VideoEncoder turns rendered frames and a mixed audio track into a video
// file. Frames are pulled through the FrameFunc in presentation order.
type VideoEncoder interface {
	Encode(ctx context.Context, frames FrameFunc, track *audio.Track, outPath string, opts EncodeOptions) error
}

type FFmpegEncoder struct {
	log zerolog.Logger
}

func NewFFmpegEncoder(log zerolog.Logger) *FFmpegEncoder {
	return &FFmpegEncoder{log: log}
}

const progressEvery = 300 // frames

func (e *FFmpegEncoder) Encode(ctx context.Context, frames FrameFunc, track *audio.Track, outPath string, opts EncodeOptions) error {
	frameTotal := int(math.Ceil(opts.Duration * float64(opts.FPS)))
	if frameTotal <= 0 {
		return fmt.Errorf("nothing to encode: duration %.3f", opts.Duration)
	}

	audioPath := ""
	if track != nil && len(track.Samples) > 0 {
		tmp, err := os.CreateTemp("", "storyreel_audio_*.wav")
		if err != nil {
			return fmt.Errorf("audio temp file: %w", err)
		}
		tmp.Close()
		audioPath = tmp.Name()
		defer os.Remove(audioPath)
		if err := audio.WriteWAVFile(audioPath, track); err != nil {
			return fmt.Errorf("audio temp file: %w", err)
		}
	}

	args := e.buildFFmpegArgs(audioPath, outPath, opts)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	e.log.Info().
		Int("frames", frameTotal).
		Str("encoder", opts.Encoder).
		Int("quality", opts.Quality).
		Bool("audio", audioPath != "").
		Msg("encoding video")

	// Запись raw RGBA данных
	for i := 0; i < frameTotal; i++ {
		if err := e.writeRawRGBA(stdin, frames(float64(i)/float64(opts.FPS))); err != nil {
			stdin.Close()
			cmd.Wait()
			return fmt.Errorf("write raw error: %v, output: %s", err, output.String())
		}
		if (i+1)%progressEvery == 0 {
			e.log.Debug().Int("frame", i+1).Int("total", frameTotal).Msg("encode progress")
		}
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode error: %v, output: %s", err, output.String())
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(audioPath, outPath string, opts EncodeOptions) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-",
	}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	args = append(args, "-c:v", opts.Encoder, "-pix_fmt", "yuv420p")

	// Качество в зависимости от энкодера
	switch opts.Encoder {
	case "h264_videotoolbox":
		bitrate := opts.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", opts.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", opts.Quality), "-preset", "medium")
	}

	if audioPath != "" {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-shortest")
	}
	args = append(args, "-movflags", "+faststart", outPath)
	return args
}

// Concatenate joins finished shot files into one video through the concat
// demuxer, stream-copied so the shots are not re-encoded.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, finalPath string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}

	tmpDir, err := os.MkdirTemp("", "storyreel_concat_*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	concatFilePath := filepath.Join(tmpDir, "inputs.txt")
	f, err := os.Create(concatFilePath)
	if err != nil {
		return err
	}
	for _, p := range segmentPaths {
		absPath, _ := filepath.Abs(p)
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	f.Close()

	e.log.Info().Int("segments", len(segmentPaths)).Str("output", finalPath).Msg("concatenating shots")

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat", "-safe", "0", "-i", concatFilePath,
		"-c", "copy", finalPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat error: %v, output: %s", err, string(out))
	}
	return nil
}

func (e *FFmpegEncoder) writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride != bounds.Dx()*4 || bounds.Min.X != 0 || bounds.Min.Y != 0 {
		aligned := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(aligned, aligned.Bounds(), img, bounds.Min, draw.Src)
		img = aligned
	}
	_, err := w.Write(img.Pix)
	return err
}
