package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ivlev/storyreel/internal/audio"
)

func testOpts() EncodeOptions {
	return EncodeOptions{
		Width:    320,
		Height:   240,
		FPS:      30,
		Duration: 2.0,
		Encoder:  "libx264",
		Quality:  23,
	}
}

func TestBuildFFmpegArgsVideoOnly(t *testing.T) {
	e := NewFFmpegEncoder(zerolog.Nop())
	args := e.buildFFmpegArgs("", "out.mp4", testOpts())

	checks := [][]string{
		{"-f", "rawvideo"},
		{"-pixel_format", "rgba"},
		{"-video_size", "320x240"},
		{"-framerate", "30"},
		{"-i", "-"},
		{"-c:v", "libx264"},
		{"-crf", "23", "-preset", "medium"},
		{"-pix_fmt", "yuv420p"},
		{"-movflags", "+faststart"},
	}
	for _, want := range checks {
		if !hasSeq(args, want...) {
			t.Errorf("Args missing %v: %v", want, args)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("Output path must be the last arg, got %q", args[len(args)-1])
	}
	for _, a := range args {
		if a == "-c:a" || a == "-shortest" {
			t.Errorf("Unexpected audio arg %q without an audio input", a)
		}
	}
}

func TestBuildFFmpegArgsWithAudio(t *testing.T) {
	e := NewFFmpegEncoder(zerolog.Nop())
	args := e.buildFFmpegArgs("/tmp/track.wav", "out.mp4", testOpts())

	for _, want := range [][]string{
		{"-i", "/tmp/track.wav"},
		{"-c:a", "aac"},
		{"-shortest"},
	} {
		if !hasSeq(args, want...) {
			t.Errorf("Args missing %v: %v", want, args)
		}
	}
}

func TestBuildFFmpegArgsQualityPerEncoder(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    []string
	}{
		{"h264_videotoolbox", 75, []string{"-b:v", "7500k"}},
		{"h264_nvenc", 28, []string{"-cq", "28"}},
		{"libx264", 20, []string{"-crf", "20", "-preset", "medium"}},
	}

	e := NewFFmpegEncoder(zerolog.Nop())
	for _, tt := range tests {
		opts := testOpts()
		opts.Encoder = tt.encoder
		opts.Quality = tt.quality
		args := e.buildFFmpegArgs("", "out.mp4", opts)
		if !hasSeq(args, tt.want...) {
			t.Errorf("%s: args missing %v: %v", tt.encoder, tt.want, args)
		}
	}
}

func TestWriteRawRGBA(t *testing.T) {
	e := NewFFmpegEncoder(zerolog.Nop())

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 9, G: 8, B: 7, A: 255})

	var buf bytes.Buffer
	if err := e.writeRawRGBA(&buf, img); err != nil {
		t.Fatalf("writeRawRGBA failed: %v", err)
	}
	if buf.Len() != 4*3*4 {
		t.Errorf("Expected %d bytes, got %d", 4*3*4, buf.Len())
	}
	if raw := buf.Bytes(); raw[0] != 9 || raw[1] != 8 || raw[2] != 7 {
		t.Errorf("Unexpected leading pixel bytes: %v", raw[:4])
	}
}

func TestWriteRawRGBARealignsSubimage(t *testing.T) {
	e := NewFFmpegEncoder(zerolog.Nop())

	base := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(base, base.Bounds(), image.NewUniform(color.RGBA{R: 50, G: 60, B: 70, A: 255}), image.Point{}, draw.Src)
	sub := base.SubImage(image.Rect(2, 2, 8, 8)).(*image.RGBA)

	var buf bytes.Buffer
	if err := e.writeRawRGBA(&buf, sub); err != nil {
		t.Fatalf("writeRawRGBA failed: %v", err)
	}
	if buf.Len() != 6*6*4 {
		t.Errorf("Expected %d bytes for the 6x6 window, got %d", 6*6*4, buf.Len())
	}
	raw := buf.Bytes()
	for i := 0; i < len(raw); i += 4 {
		if raw[i] != 50 || raw[i+1] != 60 || raw[i+2] != 70 {
			t.Fatalf("Byte %d: expected uniform pixel, got %v", i, raw[i:i+4])
		}
	}
}

func TestEncodeRejectsEmptyDuration(t *testing.T) {
	e := NewFFmpegEncoder(zerolog.Nop())
	opts := testOpts()
	opts.Duration = 0

	frames := func(float64) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, 320, 240)) }
	if err := e.Encode(context.Background(), frames, nil, "out.mp4", opts); err == nil {
		t.Error("Expected an error for zero duration")
	}
}

func TestEncodeSmoke(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput(); err != nil || !strings.Contains(string(out), "libx264") {
		t.Skip("libx264 not available")
	}

	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.RGBA{R: 32, G: 64, B: 96, A: 255}), image.Point{}, draw.Src)
	frames := func(float64) *image.RGBA { return frame }

	outPath := filepath.Join(t.TempDir(), "clip.mp4")
	opts := EncodeOptions{Width: 64, Height: 48, FPS: 10, Duration: 1.0, Encoder: "libx264", Quality: 30}

	e := NewFFmpegEncoder(zerolog.Nop())
	if err := e.Encode(context.Background(), frames, audio.NewSilence(8000, 2, 1.0), outPath, opts); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	st, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("Output file missing: %v", err)
	}
	if st.Size() == 0 {
		t.Error("Output file is empty")
	}
	t.Logf("Encoded %d bytes", st.Size())
}

func TestConcatenateRejectsEmptyInput(t *testing.T) {
	e := NewFFmpegEncoder(zerolog.Nop())
	if err := e.Concatenate(context.Background(), nil, "out.mp4"); err == nil {
		t.Error("Expected an error for an empty segment list")
	}
}

func TestConcatenateSmoke(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput(); err != nil || !strings.Contains(string(out), "libx264") {
		t.Skip("libx264 not available")
	}

	dir := t.TempDir()
	e := NewFFmpegEncoder(zerolog.Nop())

	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.RGBA{R: 200, G: 100, B: 50, A: 255}), image.Point{}, draw.Src)
	frames := func(float64) *image.RGBA { return frame }
	opts := EncodeOptions{Width: 64, Height: 48, FPS: 10, Duration: 0.5, Encoder: "libx264", Quality: 30}

	var segments []string
	for i := 1; i <= 2; i++ {
		p := filepath.Join(dir, fmt.Sprintf("shot_%d.mp4", i))
		if err := e.Encode(context.Background(), frames, nil, p, opts); err != nil {
			t.Fatalf("Encode segment %d failed: %v", i, err)
		}
		segments = append(segments, p)
	}

	finalPath := filepath.Join(dir, "complete_video.mp4")
	if err := e.Concatenate(context.Background(), segments, finalPath); err != nil {
		t.Fatalf("Concatenate failed: %v", err)
	}

	st, err := os.Stat(finalPath)
	if err != nil {
		t.Fatalf("Final file missing: %v", err)
	}
	if st.Size() == 0 {
		t.Error("Final file is empty")
	}
}

func hasSeq(args []string, want ...string) bool {
	for i := 0; i+len(want) <= len(args); i++ {
		match := true
		for j, w := range want {
			if args[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
