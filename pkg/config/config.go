// Package config loads cuboid settings from YAML. Fields omitted from a file
// keep their defaults, so partial configs are safe.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/interval"
	"github.com/chazu/cuboid/pkg/regionset"
	"github.com/chazu/cuboid/pkg/tessellate"
)

// MemoryStore is the Store.Path value that keeps the volume cache in memory.
const MemoryStore = ":memory:"

// Geometry kernels selectable with render.kernel.
const (
	KernelSdfx     = "sdfx"
	KernelManifold = "manifold" // needs a build with -tags=manifold
)

// maxFileSize caps config files; anything larger is almost certainly not a
// config file.
const maxFileSize = 1 << 20

type Config struct {
	Engine Engine `yaml:"engine"`
	Input  Input  `yaml:"input"`
	Eval   Eval   `yaml:"eval"`
	Render Render `yaml:"render"`
	Store  Store  `yaml:"store"`
}

type Engine struct {
	Order     string `yaml:"order"`      // lifo or largest
	Workers   int    `yaml:"workers"`    // >1 enables parallel OFF passes
	ChunkSize int    `yaml:"chunk_size"` // boxes per parallel work unit
}

type Input struct {
	Format     string         `yaml:"format"` // auto, text or json
	Clamp      bool           `yaml:"clamp"`  // restrict to InitRegion on every axis
	InitRegion interval.Range `yaml:"init_region"`
}

type Eval struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Render struct {
	Kernel   string `yaml:"kernel"` // sdfx or manifold
	Mode     string `yaml:"mode"`   // per-fragment or merged
	Cells    int    `yaml:"cells"`
	MaxBoxes int    `yaml:"max_boxes"`
	Recenter bool   `yaml:"recenter"`
}

type Store struct {
	Path     string `yaml:"path"` // sqlite file, or ":memory:"
	Disabled bool   `yaml:"disabled"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Engine: Engine{
			Order:     regionset.OrderLIFO.String(),
			Workers:   1,
			ChunkSize: regionset.DefaultChunkSize,
		},
		Input: Input{
			Format:     instruction.FormatAuto.String(),
			InitRegion: instruction.DefaultInitRegion.X,
		},
		Eval: Eval{Timeout: 5 * time.Second},
		Render: Render{
			Kernel:   KernelSdfx,
			Mode:     tessellate.PerFragment.String(),
			Cells:    200,
			MaxBoxes: tessellate.DefaultMaxBoxes,
			Recenter: true,
		},
		Store: Store{Path: MemoryStore},
	}
}

// Load reads path and merges it onto Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config: %s too large: %d bytes (max %d)", clean, info.Size(), maxFileSize)
	}
	raw, err := os.ReadFile(clean)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", clean, err)
	}
	return cfg, nil
}

// Parse decodes YAML onto Default and validates the result.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := regionset.ParseOrder(c.Engine.Order); err != nil {
		return fmt.Errorf("config: engine.order: %w", err)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("config: engine.workers must be >= 0, got %d", c.Engine.Workers)
	}
	if c.Engine.ChunkSize < 0 {
		return fmt.Errorf("config: engine.chunk_size must be >= 0, got %d", c.Engine.ChunkSize)
	}
	if _, err := instruction.ParseFormat(c.Input.Format); err != nil {
		return fmt.Errorf("config: input.format: %w", err)
	}
	if err := c.Input.InitRegion.Validate(); err != nil {
		return fmt.Errorf("config: input.init_region: %w", err)
	}
	if c.Eval.Timeout <= 0 {
		return fmt.Errorf("config: eval.timeout must be positive, got %s", c.Eval.Timeout)
	}
	switch c.Render.Kernel {
	case KernelSdfx, KernelManifold:
	default:
		return fmt.Errorf("config: render.kernel: unknown kernel %q, expected %s or %s", c.Render.Kernel, KernelSdfx, KernelManifold)
	}
	if _, err := ParseMode(c.Render.Mode); err != nil {
		return fmt.Errorf("config: render.mode: %w", err)
	}
	if c.Render.Cells <= 0 {
		return fmt.Errorf("config: render.cells must be positive, got %d", c.Render.Cells)
	}
	if c.Render.MaxBoxes <= 0 {
		return fmt.Errorf("config: render.max_boxes must be positive, got %d", c.Render.MaxBoxes)
	}
	if c.Store.Path == "" && !c.Store.Disabled {
		return fmt.Errorf("config: store.path is empty; use %q or set store.disabled", MemoryStore)
	}
	return nil
}

// RegionOptions converts the engine settings. c must be valid.
func (c Config) RegionOptions() regionset.Options {
	order, _ := regionset.ParseOrder(c.Engine.Order)
	return regionset.Options{
		Order:     order,
		Workers:   c.Engine.Workers,
		ChunkSize: c.Engine.ChunkSize,
	}
}

// Format returns the configured input format. c must be valid.
func (c Config) Format() instruction.Format {
	f, _ := instruction.ParseFormat(c.Input.Format)
	return f
}

// InitBounds returns the clamp cube built from InitRegion.
func (c Config) InitBounds() box.Box {
	r := c.Input.InitRegion
	return box.Box{X: r, Y: r, Z: r}
}

// TessellateOptions converts the render settings. c must be valid.
func (c Config) TessellateOptions() tessellate.Options {
	mode, _ := ParseMode(c.Render.Mode)
	return tessellate.Options{
		Mode:     mode,
		MaxBoxes: c.Render.MaxBoxes,
		Recenter: c.Render.Recenter,
	}
}

// ParseMode converts a render mode name.
func ParseMode(s string) (tessellate.Mode, error) {
	switch s {
	case "", "per-fragment", "fragments":
		return tessellate.PerFragment, nil
	case "merged", "union":
		return tessellate.Merged, nil
	}
	return tessellate.PerFragment, fmt.Errorf("unknown render mode %q, expected per-fragment or merged", s)
}
