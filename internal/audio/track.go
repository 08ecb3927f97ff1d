package audio

import "math"

// Track holds interleaved 16-bit PCM samples. All mixing happens in this
// format; files land here through the Loader.
type Track struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// NewSilence returns a zeroed track spanning duration seconds.
func NewSilence(sampleRate, channels int, duration float64) *Track {
	return &Track{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    make([]int16, frameCount(sampleRate, duration)*channels),
	}
}

// Duration reports the track length in seconds.
func (t *Track) Duration() float64 {
	if t.SampleRate <= 0 || t.Channels <= 0 {
		return 0
	}
	return float64(len(t.Samples)/t.Channels) / float64(t.SampleRate)
}

// Scale multiplies every sample by gain, saturating at the int16 range.
func (t *Track) Scale(gain float64) {
	for i, s := range t.Samples {
		t.Samples[i] = clampSample(int32(math.Round(float64(s) * gain)))
	}
}

// MixAt layers clip into the track starting at offset seconds. The clip
// must already match the track's sample rate and channel count. Samples
// running past the track end are dropped.
func (t *Track) MixAt(clip *Track, offset float64) {
	start := frameCount(t.SampleRate, offset) * t.Channels
	for i, s := range clip.Samples {
		j := start + i
		if j >= len(t.Samples) {
			break
		}
		t.Samples[j] = clampSample(int32(t.Samples[j]) + int32(s))
	}
}

// LoopTo repeats src end to end until duration is covered, truncating the
// last repetition so the result spans duration exactly.
func LoopTo(src *Track, duration float64) *Track {
	out := NewSilence(src.SampleRate, src.Channels, duration)
	if len(src.Samples) == 0 {
		return out
	}
	for filled := 0; filled < len(out.Samples); {
		filled += copy(out.Samples[filled:], src.Samples)
	}
	return out
}

func frameCount(sampleRate int, duration float64) int {
	if duration <= 0 {
		return 0
	}
	return int(math.Round(duration * float64(sampleRate)))
}

func clampSample(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
