package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/chazu/cuboid/pkg/config"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/monitoring"
	"github.com/chazu/cuboid/pkg/stats"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	volumeOrder      string
	volumeWorkers    int
	volumeChunkSize  int
	volumeFormat     string
	volumeClamp      bool
	volumeInitRegion string
	volumeStorePath  string
	volumeNoCache    bool
	volumeFresh      bool
	volumeJSON       bool
	volumeStats      bool
	volumeHist       string
	volumeBins       int
	volumeSave       string
)

var volumeCmd = &cobra.Command{
	Use:   "volume <file>...",
	Short: "Count the cells an instruction stream leaves on",
	Long: `Apply each instruction file in order to an empty grid and print the number
of cells left on. Files may be text ("on x=1..3,y=1..3,z=1..3" per line), JSON,
or either of those compressed with zstd (".zst"). Use "-" for stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVolume,
}

func init() {
	volumeCmd.Flags().StringVar(&volumeOrder, "order", "", "Finalize order: lifo or largest")
	volumeCmd.Flags().IntVar(&volumeWorkers, "workers", 0, "Goroutines for OFF passes (1 = sequential)")
	volumeCmd.Flags().IntVar(&volumeChunkSize, "chunk-size", 0, "Boxes per parallel work unit")
	volumeCmd.Flags().StringVar(&volumeFormat, "format", "", "Input format: auto, text, json")
	volumeCmd.Flags().BoolVar(&volumeClamp, "clamp", false, "Restrict instructions to the init region")
	volumeCmd.Flags().StringVar(&volumeInitRegion, "init-region", "", `Init region bounds on every axis, e.g. "-50..50" (implies --clamp)`)
	volumeCmd.Flags().StringVar(&volumeStorePath, "store", "", `Result store path, or ":memory:"`)
	volumeCmd.Flags().BoolVar(&volumeNoCache, "no-cache", false, "Do not read or write the result store")
	volumeCmd.Flags().BoolVar(&volumeFresh, "fresh", false, "Recompute even when the store has a result")
	volumeCmd.Flags().BoolVar(&volumeJSON, "json", false, "Print results as JSON")
	volumeCmd.Flags().BoolVar(&volumeStats, "stats", false, "Print engine counters and fragment statistics")
	volumeCmd.Flags().StringVar(&volumeHist, "hist", "", "Write a fragment volume histogram (.png, .svg, .pdf)")
	volumeCmd.Flags().IntVar(&volumeBins, "bins", stats.DefaultBins, "Histogram bins")
	volumeCmd.Flags().StringVar(&volumeSave, "save", "", "Write the (clamped) stream of the last file as zstd text")
}

// volumeConfig overlays the volume flags that were set on the loaded config.
func volumeConfig(cmd *cobra.Command) (config.Config, error) {
	c := cfg
	flags := cmd.Flags()
	if flags.Changed("order") {
		c.Engine.Order = volumeOrder
	}
	if flags.Changed("workers") {
		c.Engine.Workers = volumeWorkers
	}
	if flags.Changed("chunk-size") {
		c.Engine.ChunkSize = volumeChunkSize
	}
	if flags.Changed("format") {
		c.Input.Format = volumeFormat
	}
	if flags.Changed("clamp") {
		c.Input.Clamp = volumeClamp
	}
	if volumeInitRegion != "" {
		r, err := instruction.ParseRange(volumeInitRegion)
		if err != nil {
			return config.Config{}, fmt.Errorf("--init-region: %w", err)
		}
		c.Input.InitRegion = r
		c.Input.Clamp = true
	}
	if flags.Changed("store") {
		c.Store.Path = volumeStorePath
	}
	if volumeNoCache {
		c.Store.Disabled = true
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	c, err := volumeConfig(cmd)
	if err != nil {
		return err
	}
	app, err := NewApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	// --stats and --hist need fragments, which a cache hit does not carry.
	fresh := volumeFresh || volumeStats || volumeHist != ""

	reports := make([]VolumeReport, 0, len(args))
	var last []instruction.Instruction
	for _, path := range args {
		instrs, err := instruction.Open(path, c.Format())
		if err != nil {
			return err
		}
		rep, err := app.Volume(path, instrs, VolumeOptions{Fresh: fresh})
		if err != nil {
			return err
		}
		reports = append(reports, rep)
		last = instrs
	}

	if volumeSave != "" {
		saved := app.prepare(last)
		if err := saveStream(volumeSave, saved); err != nil {
			return err
		}
		monitoring.Logf("cuboid: wrote %d instructions to %s", len(saved), volumeSave)
	}

	if volumeHist != "" {
		rep := reports[len(reports)-1]
		if err := stats.SaveHistogram(rep.Boxes(), volumeBins, volumeHist); err != nil {
			return fmt.Errorf("writing histogram: %w", err)
		}
	}

	if volumeJSON {
		return outputVolumeJSON(cmd.OutOrStdout(), reports, volumeStats)
	}
	return outputVolumeHuman(cmd.OutOrStdout(), reports, volumeStats)
}

func saveStream(path string, instrs []instruction.Instruction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := instruction.WriteCompressed(f, instrs); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// volumeOutput is the JSON shape of one volume result.
type volumeOutput struct {
	VolumeReport
	Summary *stats.Summary `json:"summary,omitempty"`
}

func outputVolumeJSON(w io.Writer, reports []VolumeReport, withStats bool) error {
	out := make([]volumeOutput, 0, len(reports))
	for _, rep := range reports {
		v := volumeOutput{VolumeReport: rep}
		if withStats {
			s, err := stats.Summarize(rep.Boxes())
			if err != nil {
				return err
			}
			v.Summary = &s
		} else {
			v.Stats = nil
		}
		out = append(out, v)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// formatCells renders n with thousands separators. uint64 volumes may not
// fit an int64.
func formatCells(n uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(n))
}

func outputVolumeHuman(w io.Writer, reports []VolumeReport, withStats bool) error {
	var (
		volume  = color.New(color.Bold, color.FgHiGreen)
		source  = color.New(color.Bold)
		meta    = color.New(color.FgHiBlue)
		heading = color.New(color.Bold)
	)

	for _, rep := range reports {
		origin := "computed in " + rep.Elapsed.Round(time.Microsecond).String()
		if rep.Cached {
			origin = "cached"
		}
		fmt.Fprintf(w, "%s  %s cells\n", source.Sprint(rep.Source), volume.Sprint(formatCells(rep.Volume)))
		fmt.Fprintf(w, "  %s\n", meta.Sprintf("%s instructions, %s fragments, order %s, %s",
			humanize.Comma(int64(rep.Instructions)),
			humanize.Comma(int64(rep.Fragments)),
			rep.Order, origin))
		if rep.Clamped {
			fmt.Fprintf(w, "  %s\n", meta.Sprint("clamped to the init region"))
		}

		if !withStats || rep.Stats == nil {
			continue
		}
		st := rep.Stats
		fmt.Fprintf(w, "  %s\n", heading.Sprint("Engine"))
		fmt.Fprintf(w, "    on %d, off %d (%d no-ops), splits %d, peak %d boxes\n",
			st.On, st.Off, st.OffNoops, st.Splits, st.Peak)
		s, err := stats.Summarize(rep.Boxes())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\n", heading.Sprint("Fragments"))
		fmt.Fprintf(w, "    count %d, mean %.1f, median %.1f, stddev %.1f, min %.0f, max %.0f\n",
			s.Count, s.Mean, s.Median, s.StdDev, s.Min, s.Max)
	}
	return nil
}
