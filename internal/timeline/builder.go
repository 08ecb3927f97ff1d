package timeline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkChars caps how many characters of caption text share the
// screen at once when a timeline is built from raw captions.
const DefaultChunkChars = 15

const fallbackSceneSeconds = 3.0

// Caption is one scene's spoken line, the input to Build.
type Caption struct {
	Scene int    `yaml:"scene"`
	Text  string `yaml:"text"`
}

// DurationFunc reports the voice clip duration of a scene in seconds.
// ok=false means no clip is known and the fallback duration applies.
type DurationFunc func(scene int) (seconds float64, ok bool)

// CleanCaption replaces punctuation and symbol runes with spaces and
// collapses the whitespace, so chunk boundaries always fall on words.
func CleanCaption(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

// SplitChunks packs words greedily into chunks of at most maxChars
// characters, counting runes so CJK text budgets the same way as Latin.
// A word longer than maxChars becomes a chunk of its own.
func SplitChunks(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}

	var chunks []string
	current := ""
	for _, word := range strings.Fields(text) {
		test := word
		if current != "" {
			test = current + " " + word
		}
		if utf8.RuneCountInString(test) <= maxChars {
			current = test
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		current = word
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// Build assembles a validated timeline from per-scene captions. Each
// caption is cleaned, packed into chunks of at most maxChars characters,
// and the chunks split the scene's voice clip duration evenly. Scenes
// without a known duration get fallbackSceneSeconds. Captions are laid
// out back to back in slice order, so the result is gap-free.
func Build(shot int, captions []Caption, duration DurationFunc, maxChars int) (*Timeline, error) {
	if len(captions) == 0 {
		return nil, fmt.Errorf("shot %d has no captions", shot)
	}

	tl := &Timeline{Shot: shot}
	current := 0.0
	for _, c := range captions {
		seconds, ok := 0.0, false
		if duration != nil {
			seconds, ok = duration(c.Scene)
		}
		if !ok || seconds <= 0 {
			seconds = fallbackSceneSeconds
		}

		clean := CleanCaption(c.Text)
		chunks := SplitChunks(clean, maxChars)
		if len(chunks) == 0 {
			// Caption was pure punctuation, keep the raw text.
			chunks = []string{strings.TrimSpace(c.Text)}
		}

		chunkDur := seconds / float64(len(chunks))
		for j, chunk := range chunks {
			tl.Segments = append(tl.Segments, Segment{
				Scene:    c.Scene,
				Chunk:    j + 1,
				Text:     chunk,
				Start:    current + float64(j)*chunkDur,
				End:      current + float64(j+1)*chunkDur,
				Duration: chunkDur,
			})
		}
		current += seconds
	}

	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}
