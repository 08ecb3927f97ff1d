package audio

import (
	"math"
	"testing"
)

func TestNewSilence(t *testing.T) {
	tests := []struct {
		rate, channels int
		duration       float64
		wantSamples    int
	}{
		{44100, 2, 1.0, 88200},
		{8000, 2, 2.5, 40000},
		{8000, 1, 0.1, 800},
		{8000, 2, 0.0, 0},
		{8000, 2, -1.0, 0},
	}

	for _, tt := range tests {
		tr := NewSilence(tt.rate, tt.channels, tt.duration)
		if len(tr.Samples) != tt.wantSamples {
			t.Errorf("NewSilence(%d, %d, %.2f): expected %d samples, got %d",
				tt.rate, tt.channels, tt.duration, tt.wantSamples, len(tr.Samples))
		}
	}
}

func TestDuration(t *testing.T) {
	tr := NewSilence(8000, 2, 3.25)
	if d := tr.Duration(); math.Abs(d-3.25) > 1e-9 {
		t.Errorf("Expected duration 3.25, got %f", d)
	}

	empty := &Track{}
	if d := empty.Duration(); d != 0 {
		t.Errorf("Expected zero duration for an empty track, got %f", d)
	}
}

func TestScale(t *testing.T) {
	tr := &Track{SampleRate: 8000, Channels: 1, Samples: []int16{1000, -1000, 30000, -30000}}
	tr.Scale(0.3)

	want := []int16{300, -300, 9000, -9000}
	for i, s := range tr.Samples {
		if s != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], s)
		}
	}

	// Gain above 1 saturates instead of wrapping
	tr = &Track{SampleRate: 8000, Channels: 1, Samples: []int16{30000, -30000}}
	tr.Scale(2.0)
	if tr.Samples[0] != math.MaxInt16 || tr.Samples[1] != math.MinInt16 {
		t.Errorf("Expected saturation to [%d, %d], got %v", math.MaxInt16, math.MinInt16, tr.Samples)
	}
}

func TestMixAt(t *testing.T) {
	out := NewSilence(8000, 2, 1.0)
	clip := &Track{SampleRate: 8000, Channels: 2, Samples: []int16{100, 200, 300, 400}}

	out.MixAt(clip, 0.5)

	start := 4000 * 2 // half a second of stereo frames
	for i, want := range []int16{100, 200, 300, 400} {
		if got := out.Samples[start+i]; got != want {
			t.Errorf("Sample %d: expected %d, got %d", start+i, want, got)
		}
	}
	if out.Samples[start-1] != 0 || out.Samples[start+4] != 0 {
		t.Error("Mix must not bleed outside the clip window")
	}
}

func TestMixAtDropsOverhang(t *testing.T) {
	out := NewSilence(8000, 1, 1.0) // 8000 samples
	clip := &Track{SampleRate: 8000, Channels: 1, Samples: make([]int16, 16000)}
	for i := range clip.Samples {
		clip.Samples[i] = 7
	}

	out.MixAt(clip, 0.5)

	if out.Samples[3999] != 0 {
		t.Error("Expected silence before the clip start")
	}
	if out.Samples[4000] != 7 || out.Samples[7999] != 7 {
		t.Error("Expected the clip inside the window")
	}
	if len(out.Samples) != 8000 {
		t.Errorf("Mix must never grow the track: got %d samples", len(out.Samples))
	}
}

func TestMixAtSaturates(t *testing.T) {
	out := &Track{SampleRate: 8000, Channels: 1, Samples: []int16{30000, -30000}}
	clip := &Track{SampleRate: 8000, Channels: 1, Samples: []int16{10000, -10000}}

	out.MixAt(clip, 0)

	if out.Samples[0] != math.MaxInt16 {
		t.Errorf("Expected positive saturation, got %d", out.Samples[0])
	}
	if out.Samples[1] != math.MinInt16 {
		t.Errorf("Expected negative saturation, got %d", out.Samples[1])
	}
}

func TestLoopTo(t *testing.T) {
	src := &Track{SampleRate: 4, Channels: 1, Samples: []int16{1, 2, 3}}

	out := LoopTo(src, 1.25) // five samples at rate 4
	want := []int16{1, 2, 3, 1, 2}
	if len(out.Samples) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(out.Samples))
	}
	for i, w := range want {
		if out.Samples[i] != w {
			t.Errorf("Sample %d: expected %d, got %d", i, w, out.Samples[i])
		}
	}
}

func TestLoopToLeavesNoGaps(t *testing.T) {
	src := NewSilence(8000, 2, 2.0)
	for i := range src.Samples {
		src.Samples[i] = 1000
	}

	out := LoopTo(src, 7.0)

	if d := out.Duration(); math.Abs(d-7.0) > 1e-9 {
		t.Fatalf("Expected exactly 7.0s, got %f", d)
	}
	for i, s := range out.Samples {
		if s != 1000 {
			t.Fatalf("Gap at sample %d: got %d", i, s)
		}
	}
}

func TestLoopToEmptySource(t *testing.T) {
	src := &Track{SampleRate: 8000, Channels: 2}
	out := LoopTo(src, 1.0)
	if len(out.Samples) != 16000 {
		t.Errorf("Expected full-length silence, got %d samples", len(out.Samples))
	}
}
