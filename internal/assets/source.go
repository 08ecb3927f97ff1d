package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ImageSource resolves scene numbers to stable cache keys and loads the
// image behind a key. Keys double as log-friendly names.
type ImageSource interface {
	SceneCount() int
	SceneKey(scene int) string
	LoadKey(key string) (image.Image, error)
	Close() error
}

// DirSource serves scene images from the conventional shot layout. Keys
// are plain file paths.
type DirSource struct {
	assetsDir string
	shot      int
	paths     map[int]string
	maxScene  int
}

func NewDirSource(assetsDir string, shot int) (*DirSource, error) {
	dir := ShotDir(assetsDir, shot)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("shot directory: %w", err)
	}

	s := &DirSource{assetsDir: assetsDir, shot: shot, paths: make(map[int]string)}

	imagesDir := filepath.Join(dir, "images")
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		// A shot with no images dir still renders, on placeholders.
		return s, nil
	}
	for _, entry := range entries {
		if entry.IsDir() || !hasImageExtension(entry.Name()) {
			continue
		}
		var gotShot, scene int
		if _, err := fmt.Sscanf(entry.Name(), "shot_%d_scene_%d", &gotShot, &scene); err != nil || gotShot != shot {
			continue
		}
		if _, dup := s.paths[scene]; dup {
			continue
		}
		s.paths[scene] = filepath.Join(imagesDir, entry.Name())
		if scene > s.maxScene {
			s.maxScene = scene
		}
	}
	return s, nil
}

func hasImageExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (s *DirSource) SceneCount() int {
	return s.maxScene
}

func (s *DirSource) SceneKey(scene int) string {
	if p, ok := s.paths[scene]; ok {
		return p
	}
	return SceneImagePath(s.assetsDir, s.shot, scene)
}

func (s *DirSource) LoadKey(key string) (image.Image, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *DirSource) Close() error { return nil }

// StoryboardSource serves scene N from page N of a PDF storyboard. Keys
// carry the page number as a "path#pageN" suffix.
type StoryboardSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewStoryboardSource(path string, dpi int) (*StoryboardSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &StoryboardSource{doc: doc, path: path, dpi: dpi}, nil
}

func (s *StoryboardSource) SceneCount() int {
	return s.doc.NumPage()
}

func (s *StoryboardSource) SceneKey(scene int) string {
	return fmt.Sprintf("%s#page%d", s.path, scene)
}

// LoadKey opens a fresh document per call so concurrent loads never share
// fitz state.
func (s *StoryboardSource) LoadKey(key string) (image.Image, error) {
	var scene int
	idx := strings.LastIndex(key, "#page")
	if idx < 0 {
		return nil, fmt.Errorf("bad storyboard key %q", key)
	}
	if _, err := fmt.Sscanf(key[idx:], "#page%d", &scene); err != nil {
		return nil, fmt.Errorf("bad storyboard key %q", key)
	}
	if scene < 1 || scene > s.doc.NumPage() {
		return nil, fmt.Errorf("no page for scene %d", scene)
	}

	workerDoc, err := fitz.New(s.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(scene-1, float64(s.dpi))
}

func (s *StoryboardSource) Close() error {
	return s.doc.Close()
}
