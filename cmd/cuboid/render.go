package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/config"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/monitoring"
	"github.com/spf13/cobra"
)

var (
	renderOutput   string
	renderKernel   string
	renderMode     string
	renderCells    int
	renderMaxBoxes int
	renderCSG      bool
	renderClip     string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Tessellate the cells left on into triangle meshes",
	Long: `Compute the disjoint fragments of an instruction stream (or a .lisp program)
and mesh them with the sdfx kernel, or with manifold in builds tagged manifold.
Meshes are written as JSON with flat vertex, normal and index arrays.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "-", "Mesh JSON output path")
	renderCmd.Flags().StringVar(&renderKernel, "kernel", "", "Geometry kernel: sdfx or manifold")
	renderCmd.Flags().StringVar(&renderMode, "mode", "", "per-fragment or merged")
	renderCmd.Flags().IntVar(&renderCells, "cells", 0, "Marching cubes resolution")
	renderCmd.Flags().IntVar(&renderMaxBoxes, "max-boxes", 0, "Refuse to mesh more boxes than this")
	renderCmd.Flags().BoolVar(&renderCSG, "csg", false, "Mesh the instructions as unions and differences")
	renderCmd.Flags().StringVar(&renderClip, "clip", "", `Only mesh cells inside "lo..hi" on every axis`)
}

func renderConfig(cmd *cobra.Command) (config.Config, error) {
	c := cfg
	flags := cmd.Flags()
	if flags.Changed("kernel") {
		c.Render.Kernel = renderKernel
	}
	if flags.Changed("mode") {
		c.Render.Mode = renderMode
	}
	if flags.Changed("cells") {
		c.Render.Cells = renderCells
	}
	if flags.Changed("max-boxes") {
		c.Render.MaxBoxes = renderMaxBoxes
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	c, err := renderConfig(cmd)
	if err != nil {
		return err
	}
	app, err := NewApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	instrs, err := instructionsFromFile(app, args[0], c.Format())
	if err != nil {
		return err
	}

	opts := RenderOptions{Options: c.TessellateOptions(), CSG: renderCSG}
	if renderClip != "" {
		r, err := parseClip(renderClip)
		if err != nil {
			return err
		}
		opts.Clip = &r
	}

	meshes, err := app.Render(instrs, opts)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", args[0], err)
	}
	monitoring.Debugf("cuboid: %d meshes from %d instructions", len(meshes), len(instrs))

	if renderOutput == "-" {
		return writeMeshes(cmd.OutOrStdout(), meshes)
	}
	f, err := os.Create(renderOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", renderOutput, err)
	}
	if err := writeMeshes(f, meshes); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	monitoring.Logf("cuboid: wrote %d meshes to %s", len(meshes), renderOutput)
	return nil
}

func writeMeshes(w io.Writer, meshes []MeshData) error {
	return json.NewEncoder(w).Encode(meshes)
}

// parseClip turns "lo..hi" into a cube with those bounds on every axis.
func parseClip(s string) (box.Box, error) {
	r, err := instruction.ParseRange(s)
	if err != nil {
		return box.Box{}, fmt.Errorf("--clip: %w", err)
	}
	return box.Box{X: r, Y: r, Z: r}, nil
}
