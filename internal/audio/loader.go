package audio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Loader decodes audio files into tracks matching the session format.
// Plain 16-bit WAV files at the session rate are read natively; anything
// else goes through ffmpeg, which also resamples.
type Loader struct {
	sampleRate int
	channels   int
	log        zerolog.Logger
}

func NewLoader(sampleRate, channels int, log zerolog.Logger) *Loader {
	return &Loader{sampleRate: sampleRate, channels: channels, log: log}
}

func (l *Loader) Load(ctx context.Context, path string) (*Track, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		t, err := l.loadWAV(path)
		if err == nil {
			return t, nil
		}
		l.log.Debug().Str("path", path).Err(err).Msg("native wav read failed, falling back to ffmpeg")
	}
	return l.loadFFmpeg(ctx, path)
}

func (l *Loader) loadWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := DecodeWAV(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	if t.SampleRate != l.sampleRate {
		return nil, fmt.Errorf("sample rate %d, session wants %d", t.SampleRate, l.sampleRate)
	}
	switch {
	case t.Channels == l.channels:
		return t, nil
	case t.Channels == 1 && l.channels == 2:
		return upmixMono(t), nil
	default:
		return nil, fmt.Errorf("channel count %d, session wants %d", t.Channels, l.channels)
	}
}

func (l *Loader) loadFFmpeg(ctx context.Context, path string) (*Track, error) {
	args := []string{
		"-v", "error",
		"-i", path,
		"-f", "wav",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(l.sampleRate),
		"-ac", strconv.Itoa(l.channels),
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	t, decodeErr := DecodeWAV(bufio.NewReader(stdout))
	if decodeErr != nil {
		// Drain so Wait does not block on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w\nlog: %s", path, err, stderr.String())
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, decodeErr)
	}
	return t, nil
}

func upmixMono(t *Track) *Track {
	out := &Track{SampleRate: t.SampleRate, Channels: 2, Samples: make([]int16, len(t.Samples)*2)}
	for i, s := range t.Samples {
		out.Samples[2*i] = s
		out.Samples[2*i+1] = s
	}
	return out
}
