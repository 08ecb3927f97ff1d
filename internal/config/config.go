package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Style describes how subtitle text is burned into frames.
type Style struct {
	FontPath    string  `yaml:"font_path"`
	FontSize    float64 `yaml:"font_size"`
	FillColor   string  `yaml:"fill_color"`
	StrokeColor string  `yaml:"stroke_color"`
	StrokeWidth int     `yaml:"stroke_width"`
	MaxChars    int     `yaml:"max_chars"` // chunk size when building timelines from captions
}

// Watermark is an optional QR code stamped into a frame corner.
type Watermark struct {
	URL    string `yaml:"url"`
	Size   int    `yaml:"size"`
	Margin int    `yaml:"margin"`
}

type Config struct {
	AssetsDir string `yaml:"assets_dir"`
	OutputDir string `yaml:"output_dir"`

	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	FPS     int `yaml:"fps"`
	Workers int `yaml:"workers"` // 0 = detect
	DPI     int `yaml:"dpi"`     // storyboard page rasterization

	BackgroundAudio  string  `yaml:"background_audio"`
	BackgroundVolume float64 `yaml:"background_volume"`
	SampleRate       int     `yaml:"sample_rate"`

	// Scene window used when the timeline has no match for a timestamp.
	DefaultSceneDuration float64 `yaml:"default_scene_duration"`

	Subtitle  Style     `yaml:"subtitle"`
	Watermark Watermark `yaml:"watermark"`

	VideoEncoder string `yaml:"video_encoder"` // empty = autodetect
	Quality      int    `yaml:"quality"`       // 0 = per-encoder default
	ShowStats    bool   `yaml:"show_stats"`

	BuildVersion string `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		AssetsDir:            "assets",
		OutputDir:            "output",
		Width:                1440,
		Height:               1920,
		FPS:                  30,
		DPI:                  150,
		BackgroundVolume:     0.3,
		SampleRate:           44100,
		DefaultSceneDuration: 3.0,
		Subtitle: Style{
			FontSize:    70,
			FillColor:   "#FFFFFF",
			StrokeColor: "#000000",
			StrokeWidth: 3,
			MaxChars:    15,
		},
		Watermark: Watermark{
			Size:   160,
			Margin: 40,
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults; a named file must exist and parse.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects geometry the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid output geometry %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.DefaultSceneDuration <= 0 {
		c.DefaultSceneDuration = 3.0
	}
	return nil
}
