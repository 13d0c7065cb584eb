package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"moto-viewer/internal/palette"
	"moto-viewer/internal/session"
)

// DefaultPath is the config file path, relative to the process working directory.
const DefaultPath = "config/viewer.yaml"

// Config holds viewer preferences. Persisted across runs.
type Config struct {
	Window  Window  `yaml:"window"`
	Assets  Assets  `yaml:"assets"`
	Palette Palette `yaml:"palette"`
	Camera  Camera  `yaml:"camera"`
	Overlay Overlay `yaml:"overlay"`
	Log     Log     `yaml:"log"`
}

type Window struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
}

// Assets says where models live and which ones the selector offers.
type Assets struct {
	Dir              string  `yaml:"dir"`
	DefaultExtension string  `yaml:"default_extension"`
	Models           []Model `yaml:"models"`
	// Initial is loaded at startup; empty means the first catalog entry.
	Initial          string  `yaml:"initial"`
}

// Model is one entry of the model selector.
type Model struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

type Palette struct {
	Swatches      []Swatch `yaml:"swatches"`
	SwatchSize    float32  `yaml:"swatch_size"`
	SwatchGap     float32  `yaml:"swatch_gap"`
	DragThreshold float32  `yaml:"drag_threshold"`
	Highlight     string   `yaml:"highlight"`
}

// Swatch is a named color; Color takes anything palette.ParseColor accepts.
type Swatch struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type Camera struct {
	FovY          float32 `yaml:"fov"`
	Near          float32 `yaml:"near"`
	Far           float32 `yaml:"far"`
	Distance      float32 `yaml:"distance"`
	DampingFactor float32 `yaml:"damping_factor"`
}

type Overlay struct {
	ShowFPS    bool   `yaml:"show_fps"`
	HideGrid   bool   `yaml:"hide_grid"`
	Stylesheet string `yaml:"stylesheet,omitempty"`
	// Font is a font file or a family name looked up under assets/fonts.
	Font       string `yaml:"font,omitempty"`
}

type Log struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// Default returns the stock configuration: three bikes, six paints and a 75° camera.
func Default() Config {
	return Config{
		Window: Window{Title: "Moto Viewer", Width: 1280, Height: 720, TargetFPS: 60},
		Assets: Assets{
			Dir:              "modelos",
			DefaultExtension: ".glb",
			Models: []Model{
				{ID: "moto1", Label: "Sport"},
				{ID: "moto2", Label: "Naked"},
				{ID: "moto3", Label: "Touring"},
			},
		},
		Palette: Palette{
			Swatches: []Swatch{
				{Name: "red", Color: "#c1121f"},
				{Name: "black", Color: "#111111"},
				{Name: "white", Color: "#f1f1f1"},
				{Name: "blue", Color: "#1d4ed8"},
				{Name: "yellow", Color: "#facc15"},
				{Name: "green", Color: "#15803d"},
			},
			SwatchSize:    palette.DefaultSwatchSize,
			SwatchGap:     palette.DefaultGap,
			DragThreshold: 5,
			Highlight:     "#333333",
		},
		Camera: Camera{FovY: 75, Near: 0.1, Far: 1000, Distance: 5, DampingFactor: 0.05},
		Log:    Log{Path: "logs/viewer.log", Level: "info"},
	}
}

// Load reads path and merges its values over Default(). Fields the file leaves out keep
// their defaults; a list in the file replaces the default list. A missing file yields
// Default() and no error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(file.Assets.Models) > 0 {
		cfg.Assets.Models = nil
	}
	if len(file.Palette.Swatches) > 0 {
		cfg.Palette.Swatches = nil
	}
	if err := copier.CopyWithOption(&cfg, &file, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return Default(), fmt.Errorf("merge config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Save writes c to path, creating the directory if needed.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that cannot be defaulted away.
func (c Config) Validate() error {
	var errs []error
	for _, s := range c.Palette.Swatches {
		if _, err := palette.ParseColor(s.Color); err != nil {
			errs = append(errs, fmt.Errorf("swatch %q: %w", s.Name, err))
		}
	}
	if _, err := palette.ParseColor(c.Palette.Highlight); err != nil {
		errs = append(errs, fmt.Errorf("highlight: %w", err))
	}
	if c.Camera.Near >= c.Camera.Far {
		errs = append(errs, fmt.Errorf("camera: near %v must be below far %v", c.Camera.Near, c.Camera.Far))
	}
	return errors.Join(errs...)
}

// Swatches parses the palette entries. Entries that do not parse are skipped.
func (c Config) Swatches() []palette.Swatch {
	out := make([]palette.Swatch, 0, len(c.Palette.Swatches))
	for _, s := range c.Palette.Swatches {
		col, err := palette.ParseColor(s.Color)
		if err != nil {
			continue
		}
		out = append(out, palette.Swatch{Name: s.Name, Color: col})
	}
	return out
}

// InitialModel returns the identifier to load at startup, or "" for none.
func (c Config) InitialModel() string {
	if c.Assets.Initial != "" {
		return c.Assets.Initial
	}
	if len(c.Assets.Models) > 0 {
		return c.Assets.Models[0].ID
	}
	return ""
}

// SessionOptions builds viewer session options from the config.
func (c Config) SessionOptions() (session.Options, error) {
	opts := session.DefaultOptions()
	if err := copier.Copy(&opts, &c.Camera); err != nil {
		return opts, err
	}
	opts.Width, opts.Height = c.Window.Width, c.Window.Height
	opts.Swatches = c.Swatches()
	opts.SwatchSize = c.Palette.SwatchSize
	opts.SwatchGap = c.Palette.SwatchGap
	opts.DragThreshold = c.Palette.DragThreshold
	if hl, err := palette.ParseColor(c.Palette.Highlight); err == nil {
		opts.Highlight = hl
	}
	return opts, nil
}
