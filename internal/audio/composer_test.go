package audio

import (
	"context"
	"math"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ivlev/storyreel/internal/timeline"
)

const testRate = 8000

func constantTrack(rate, channels int, duration float64, value int16) *Track {
	tr := NewSilence(rate, channels, duration)
	for i := range tr.Samples {
		tr.Samples[i] = value
	}
	return tr
}

func writeWAV(t *testing.T, dir, name string, tr *Track) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := WriteWAVFile(path, tr); err != nil {
		t.Fatalf("WriteWAVFile failed: %v", err)
	}
	return path
}

func testTimelineThreeScenes() *timeline.Timeline {
	return &timeline.Timeline{
		Shot: 1,
		Segments: []timeline.Segment{
			{Scene: 1, Chunk: 1, Text: "one", Start: 0.0, End: 2.0},
			{Scene: 2, Chunk: 1, Text: "two", Start: 2.0, End: 4.0},
			{Scene: 3, Chunk: 1, Text: "three", Start: 4.0, End: 7.0},
		},
	}
}

func TestComposeBackgroundLoopCoversExactDuration(t *testing.T) {
	dir := t.TempDir()
	bg := writeWAV(t, dir, "music.wav", constantTrack(testRate, 2, 2.0, 1000))

	c := NewComposer(testRate, 2, zerolog.Nop())
	out, err := c.Compose(context.Background(), testTimelineThreeScenes(), nil, bg, 0.5, 7.0)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if d := out.Duration(); math.Abs(d-7.0) > 1e-9 {
		t.Fatalf("Expected exactly 7.0s, got %f", d)
	}
	// A 2s loop over 7s: repeated and truncated, no silent seams
	for i, s := range out.Samples {
		if s != 500 {
			t.Fatalf("Sample %d: expected 500 (volume-scaled loop), got %d", i, s)
		}
	}
}

func TestComposeVoicePlacedAtSceneStart(t *testing.T) {
	dir := t.TempDir()
	voice := writeWAV(t, dir, "shot_1_scene_2.wav", constantTrack(testRate, 2, 1.0, 2000))

	c := NewComposer(testRate, 2, zerolog.Nop())
	out, err := c.Compose(context.Background(), testTimelineThreeScenes(),
		map[int]string{2: voice}, "", 0.3, 7.0)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	// Scene 2 starts at 2.0s
	start := 2 * testRate * 2
	end := start + 1*testRate*2
	if out.Samples[start] != 2000 || out.Samples[end-1] != 2000 {
		t.Error("Expected the voice clip inside its scene window")
	}
	if out.Samples[start-1] != 0 || out.Samples[end] != 0 {
		t.Error("Expected silence outside the voice clip")
	}
}

func TestComposeSkipsMissingVoice(t *testing.T) {
	dir := t.TempDir()
	voice := writeWAV(t, dir, "shot_1_scene_3.wav", constantTrack(testRate, 2, 0.5, 3000))

	voicePaths := map[int]string{
		1: filepath.Join(dir, "does_not_exist.wav"),
		3: voice,
	}

	c := NewComposer(testRate, 2, zerolog.Nop())
	out, err := c.Compose(context.Background(), testTimelineThreeScenes(), voicePaths, "", 0.3, 7.0)
	if err != nil {
		t.Fatalf("A missing clip must not fail the mix: %v", err)
	}

	if d := out.Duration(); math.Abs(d-7.0) > 1e-9 {
		t.Fatalf("Expected exactly 7.0s, got %f", d)
	}
	// Scene 3 starts at 4.0s and its clip survived
	if got := out.Samples[4*testRate*2]; got != 3000 {
		t.Errorf("Expected scene 3 voice at its window, got %d", got)
	}
	// Scene 1 stayed silent
	if got := out.Samples[0]; got != 0 {
		t.Errorf("Expected silence where the clip was missing, got %d", got)
	}
}

func TestComposeWithoutInputsIsFullLengthSilence(t *testing.T) {
	c := NewComposer(testRate, 2, zerolog.Nop())
	out, err := c.Compose(context.Background(), testTimelineThreeScenes(), nil, "", 0.3, 7.0)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if d := out.Duration(); math.Abs(d-7.0) > 1e-9 {
		t.Fatalf("Expected exactly 7.0s, got %f", d)
	}
	for i, s := range out.Samples {
		if s != 0 {
			t.Fatalf("Expected silence, got %d at sample %d", s, i)
		}
	}
}

func TestComposeRejectsZeroDuration(t *testing.T) {
	c := NewComposer(testRate, 2, zerolog.Nop())
	if _, err := c.Compose(context.Background(), testTimelineThreeScenes(), nil, "", 0.3, 0); err == nil {
		t.Error("Expected an error for a zero-length mix")
	}
}

func TestLoaderNativeWAV(t *testing.T) {
	dir := t.TempDir()
	path := writeWAV(t, dir, "clip.wav", constantTrack(testRate, 2, 0.25, 123))

	l := NewLoader(testRate, 2, zerolog.Nop())
	tr, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tr.SampleRate != testRate || tr.Channels != 2 {
		t.Errorf("Expected %d Hz stereo, got %d Hz %d channels", testRate, tr.SampleRate, tr.Channels)
	}
	if len(tr.Samples) != testRate/4*2 {
		t.Errorf("Expected %d samples, got %d", testRate/4*2, len(tr.Samples))
	}
}

func TestLoaderUpmixesMono(t *testing.T) {
	dir := t.TempDir()
	mono := &Track{SampleRate: testRate, Channels: 1, Samples: []int16{10, 20, 30}}
	path := writeWAV(t, dir, "mono.wav", mono)

	l := NewLoader(testRate, 2, zerolog.Nop())
	tr, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []int16{10, 10, 20, 20, 30, 30}
	if len(tr.Samples) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(tr.Samples))
	}
	for i, w := range want {
		if tr.Samples[i] != w {
			t.Errorf("Sample %d: expected %d, got %d", i, w, tr.Samples[i])
		}
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoader(testRate, 2, zerolog.Nop())
	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "gone.wav")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoaderResamplesThroughFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	dir := t.TempDir()
	path := writeWAV(t, dir, "slow.wav", constantTrack(4000, 2, 1.0, 800))

	l := NewLoader(testRate, 2, zerolog.Nop())
	tr, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tr.SampleRate != testRate {
		t.Errorf("Expected resampled rate %d, got %d", testRate, tr.SampleRate)
	}
	if math.Abs(tr.Duration()-1.0) > 0.05 {
		t.Errorf("Expected ~1.0s after resampling, got %f", tr.Duration())
	}
}
