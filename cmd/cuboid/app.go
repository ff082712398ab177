package main

import (
	"fmt"
	"time"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/config"
	"github.com/chazu/cuboid/pkg/engine"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/kernel"
	"github.com/chazu/cuboid/pkg/kernel/manifold"
	"github.com/chazu/cuboid/pkg/kernel/sdfx"
	"github.com/chazu/cuboid/pkg/monitoring"
	"github.com/chazu/cuboid/pkg/regionset"
	"github.com/chazu/cuboid/pkg/store"
	"github.com/chazu/cuboid/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App ties the DSL engine, the region-set engine, the result cache and the
// geometry kernel together. Every subcommand goes through it.
type App struct {
	cfg    config.Config
	engine *engine.Engine
	kernel kernel.Kernel
	store  store.Store // nil when caching is disabled
}

// VolumeReport describes one volume computation.
type VolumeReport struct {
	Source       string           `json:"source"`
	Digest       string           `json:"digest"`
	Volume       uint64           `json:"volume"`
	Instructions int              `json:"instructions"`
	Fragments    int              `json:"fragments"`
	Order        string           `json:"order"`
	Clamped      bool             `json:"clamped"`
	Cached       bool             `json:"cached"`
	Elapsed      time.Duration    `json:"elapsed"`
	Stats        *regionset.Stats `json:"stats,omitempty"`

	// boxes is set for fresh computations only; cache hits carry counts.
	boxes []box.Box
}

// Boxes returns the disjoint fragments behind Volume, or nil for a cache hit.
func (r VolumeReport) Boxes() []box.Box {
	return r.boxes
}

// VolumeOptions tunes a single App.Volume call.
type VolumeOptions struct {
	// Fresh skips the cache lookup. The result is still recorded.
	Fresh bool
}

// MeshData is the JSON-serializable mesh format written by render.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Label    string    `json:"label"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalReport is the full result of evaluating DSL source.
type EvalReport struct {
	Steps    int             `json:"steps"`
	Volume   *VolumeReport   `json:"volume,omitempty"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	instructions []instruction.Instruction
}

// Instructions returns the evaluated instruction stream, or nil on error.
func (r EvalReport) Instructions() []instruction.Instruction {
	return r.instructions
}

// RenderOptions controls App.Render.
type RenderOptions struct {
	tessellate.Options

	// CSG meshes the instruction stream with unions and differences
	// instead of meshing the finalized fragments.
	CSG bool
}

// NewApp creates an App from validated settings, opening the result store
// unless it is disabled.
func NewApp(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k, err := newKernel(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:    cfg,
		engine: engine.NewEngine(),
		kernel: k,
	}
	a.engine.SetTimeout(cfg.Eval.Timeout)

	if !cfg.Store.Disabled {
		s, err := store.New(store.Config{Path: cfg.Store.Path})
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		a.store = s
	}
	return a, nil
}

// newKernel returns the geometry kernel named by render.kernel.
func newKernel(cfg config.Config) (kernel.Kernel, error) {
	if cfg.Render.Kernel == config.KernelManifold {
		return manifold.New()
	}
	return sdfx.NewWithCells(cfg.Render.Cells), nil
}

// Close releases the result store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Store returns the result store, or nil when caching is disabled.
func (a *App) Store() store.Store {
	return a.store
}

// prepare applies the configured clamp.
func (a *App) prepare(instrs []instruction.Instruction) []instruction.Instruction {
	if !a.cfg.Input.Clamp {
		return instrs
	}
	return instruction.InitRegion(instrs, a.cfg.InitBounds())
}

// Volume counts the cells instrs leave on. source names the stream in the
// result store.
func (a *App) Volume(source string, instrs []instruction.Instruction, opts VolumeOptions) (VolumeReport, error) {
	instrs = a.prepare(instrs)
	rep := VolumeReport{
		Source:       source,
		Digest:       instruction.Digest(instrs),
		Instructions: len(instrs),
		Order:        a.cfg.Engine.Order,
		Clamped:      a.cfg.Input.Clamp,
	}

	// Step 1: Serve a previously computed stream from the store.
	if a.store != nil && !opts.Fresh {
		rec, ok, err := a.store.Get(rep.Digest)
		if err != nil {
			return VolumeReport{}, fmt.Errorf("reading store: %w", err)
		}
		if ok {
			monitoring.Debugf("cuboid: %s cached as %s", source, rep.Digest[:12])
			rep.Volume = rec.Volume
			rep.Fragments = rec.Fragments
			rep.Order = rec.Order
			rep.Elapsed = rec.Elapsed
			rep.Cached = true
			return rep, nil
		}
	}

	// Step 2: Run the region-set engine.
	ropts := a.cfg.RegionOptions()
	ropts.Logf = monitoring.Tracer()
	set := regionset.New(ropts)

	start := time.Now()
	if err := set.ApplyAll(instrs); err != nil {
		return VolumeReport{}, fmt.Errorf("%s: %w", source, err)
	}
	res, err := set.Finalize()
	if err != nil {
		return VolumeReport{}, fmt.Errorf("%s: %w", source, err)
	}
	st := set.Stats()

	rep.Elapsed = time.Since(start)
	rep.Volume = res.Volume
	rep.Fragments = len(res.Fragments)
	rep.Stats = &st
	rep.boxes = res.Fragments

	// Step 3: Record the result. A store failure never loses the answer.
	if a.store != nil {
		err := a.store.Put(store.Record{
			Digest:       rep.Digest,
			Source:       source,
			Volume:       rep.Volume,
			Instructions: rep.Instructions,
			Fragments:    rep.Fragments,
			Order:        rep.Order,
			Clamped:      rep.Clamped,
			Elapsed:      rep.Elapsed,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			monitoring.Logf("cuboid: recording %s: %v", source, err)
		}
	}
	return rep, nil
}

// Evaluate takes DSL source and returns the volume it describes together
// with any errors and warnings. name identifies the source in the store.
func (a *App) Evaluate(name, source string) EvalReport {
	result := EvalReport{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a program.
	res, err := a.engine.EvaluateAll(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		monitoring.Logf("evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors and validation findings.
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, EvalErrorData{
			Line:    e.Line,
			Col:     e.Col,
			Message: e.Message,
		})
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Message: w.String(),
		})
	}
	if len(result.Errors) > 0 {
		return result
	}

	// Step 3: Count the cells the program leaves on.
	result.Steps = res.Program.Len()
	result.instructions = res.Program.Instructions()
	rep, err := a.Volume(name, result.instructions, VolumeOptions{})
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: "volume failed: " + err.Error()})
		return result
	}
	result.Volume = &rep
	return result
}

// Render meshes instrs with the configured kernel.
func (a *App) Render(instrs []instruction.Instruction, opts RenderOptions) ([]MeshData, error) {
	instrs = a.prepare(instrs)

	var meshes []*kernel.Mesh
	if opts.CSG {
		m, err := tessellate.Instructions(instrs, a.kernel, opts.Options)
		if err != nil {
			return nil, err
		}
		if m != nil {
			meshes = append(meshes, m)
		}
	} else {
		res, err := regionset.Run(instrs, a.cfg.RegionOptions())
		if err != nil {
			return nil, err
		}
		meshes, err = tessellate.Tessellate(res.Fragments, a.kernel, opts.Options)
		if err != nil {
			return nil, err
		}
	}

	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Label:    m.Label,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out, nil
}
