package timeline

import (
	"fmt"
	"sort"
)

// Segment represents one timed caption chunk within a scene
type Segment struct {
	Scene    int     `yaml:"scene"`
	Chunk    int     `yaml:"chunk"`
	Text     string  `yaml:"text"`
	Start    float64 `yaml:"start"`
	End      float64 `yaml:"end"`
	Duration float64 `yaml:"duration"` // End - Start, carried by the producer
}

// Timeline represents the complete segment plan for one shot
type Timeline struct {
	Shot     int       `yaml:"shot"`
	Segments []Segment `yaml:"segments"`
}

// Validate checks the ordering invariants the renderer relies on:
// segments sorted by start, positive spans, and scenes forming one
// contiguous run each.
func (tl *Timeline) Validate() error {
	if len(tl.Segments) == 0 {
		return fmt.Errorf("timeline has no segments")
	}

	seen := map[int]bool{}
	prevStart := 0.0
	prevScene := 0

	for i, seg := range tl.Segments {
		if seg.Scene < 1 {
			return fmt.Errorf("segment %d: scene %d out of range", i, seg.Scene)
		}
		if seg.Start < 0 {
			return fmt.Errorf("segment %d: negative start %.3f", i, seg.Start)
		}
		if seg.End <= seg.Start {
			return fmt.Errorf("segment %d: end %.3f not after start %.3f", i, seg.End, seg.Start)
		}
		if i > 0 && seg.Start < prevStart {
			return fmt.Errorf("segment %d: start %.3f before previous start %.3f", i, seg.Start, prevStart)
		}
		if seg.Scene != prevScene {
			if seen[seg.Scene] {
				return fmt.Errorf("segment %d: scene %d reappears after scene %d", i, seg.Scene, prevScene)
			}
			seen[seg.Scene] = true
			prevScene = seg.Scene
		}
		prevStart = seg.Start
	}

	if tl.TotalDuration() <= 0 {
		return fmt.Errorf("timeline total duration is zero")
	}
	return nil
}

// TotalDuration is the end time of the latest segment.
func (tl *Timeline) TotalDuration() float64 {
	total := 0.0
	for _, seg := range tl.Segments {
		if seg.End > total {
			total = seg.End
		}
	}
	return total
}

// Scenes returns the distinct scene numbers in ascending order.
func (tl *Timeline) Scenes() []int {
	seen := map[int]bool{}
	var scenes []int
	for _, seg := range tl.Segments {
		if !seen[seg.Scene] {
			seen[seg.Scene] = true
			scenes = append(scenes, seg.Scene)
		}
	}
	sort.Ints(scenes)
	return scenes
}

// SegmentAt returns the first segment whose [Start, End) window contains t.
func (tl *Timeline) SegmentAt(t float64) (Segment, bool) {
	for _, seg := range tl.Segments {
		if seg.Start <= t && t < seg.End {
			return seg, true
		}
	}
	return Segment{}, false
}

// SceneSpan returns the [start, end) window of a scene: the minimum start
// and maximum end over all of its segments.
func (tl *Timeline) SceneSpan(scene int) (start, end float64, ok bool) {
	for _, seg := range tl.Segments {
		if seg.Scene != scene {
			continue
		}
		if !ok || seg.Start < start {
			start = seg.Start
		}
		if seg.End > end {
			end = seg.End
		}
		ok = true
	}
	return start, end, ok
}

// TextAt returns the caption active at t, or "" when no segment covers it.
// Unlike scene lookup the end bound is inclusive, so a caption stays up
// through its last frame.
func (tl *Timeline) TextAt(t float64) string {
	for _, seg := range tl.Segments {
		if seg.Start <= t && t <= seg.End {
			return seg.Text
		}
	}
	return ""
}
