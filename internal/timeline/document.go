package timeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Write writes a timeline to a YAML file
func Write(tl *Timeline, path string) error {
	data, err := yaml.Marshal(tl)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads a timeline from a YAML file and validates it
func Read(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tl Timeline
	if err := yaml.Unmarshal(data, &tl); err != nil {
		return nil, err
	}
	if err := tl.Validate(); err != nil {
		return nil, fmt.Errorf("timeline %s: %w", path, err)
	}

	return &tl, nil
}

// ReadCaptions reads the per-scene caption list a timeline is built from.
func ReadCaptions(path string) ([]Caption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var captions []Caption
	if err := yaml.Unmarshal(data, &captions); err != nil {
		return nil, fmt.Errorf("captions %s: %w", path, err)
	}
	return captions, nil
}

// DocumentPath is the conventional location of a shot's timeline document.
func DocumentPath(assetsDir string, shot int) string {
	return filepath.Join(assetsDir, fmt.Sprintf("shot_%d", shot), fmt.Sprintf("shot_%d_timeline.yaml", shot))
}
