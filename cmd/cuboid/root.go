package main

import (
	"fmt"
	"log"
	"os"

	"github.com/chazu/cuboid/pkg/config"
	"github.com/chazu/cuboid/pkg/monitoring"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configPath string
	colorMode  string
	verbose    bool
	quiet      bool

	// cfg is loaded once per invocation by loadConfig.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "cuboid",
	Short: "Cuboid - exact volume of on/off box instruction streams",
	Long: `Cuboid applies a list of "on"/"off" cuboid instructions to an infinite
integer grid and reports how many cells are left on.

Streams are read as text, JSON or zstd-compressed files, or built with a small
Lisp DSL. Results are cached by stream digest in a local SQLite store.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML settings file")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	monitoring.SetLogger(logger.Printf)
	if quiet {
		monitoring.SetLogger(nil)
	}
	monitoring.SetVerbose(verbose && !quiet)

	switch colorMode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto":
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != ""
	default:
		return fmt.Errorf("unknown --color value %q, expected auto, always or never", colorMode)
	}
	return nil
}
