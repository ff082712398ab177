package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	evalJSON  bool
	evalPrint bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <file.lisp>",
	Short: "Evaluate a region program and count its cells",
	Long: `Evaluate a Lisp region program. Programs build regions with (cuboid :x lo hi
:y lo hi :z lo hi) or (cube lo hi), name them with (defregion "name" region),
and switch them with (on ...) and (off ...). Use "-" for stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "Print the result as JSON")
	evalCmd.Flags().BoolVar(&evalPrint, "print", false, "Print the evaluated instruction stream")
}

func runEval(cmd *cobra.Command, args []string) error {
	source, err := readSource(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	result := app.Evaluate(args[0], source)

	out := cmd.OutOrStdout()
	if evalJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		outputEvalHuman(out, cmd.ErrOrStderr(), result)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%s: %d error(s)", args[0], len(result.Errors))
	}
	return nil
}

func readSource(path string, stdin io.Reader) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(raw), nil
}

func outputEvalHuman(out, errOut io.Writer, result EvalReport) {
	var (
		errStyle  = color.New(color.Bold, color.FgHiRed)
		warnStyle = color.New(color.FgYellow)
	)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(errOut, "%s line %d: %s\n", errStyle.Sprint("error"), e.Line, e.Message)
			continue
		}
		fmt.Fprintf(errOut, "%s %s\n", errStyle.Sprint("error"), e.Message)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(errOut, "%s %s\n", warnStyle.Sprint("warning"), w.Message)
	}
	if result.Volume == nil {
		return
	}
	if evalPrint {
		for _, in := range result.Instructions() {
			fmt.Fprintln(out, in.String())
		}
	}
	outputVolumeHuman(out, []VolumeReport{*result.Volume}, false)
}

// instructionsFromFile loads a stream for render: ".lisp" files are
// evaluated, anything else goes through instruction.Open.
func instructionsFromFile(app *App, path string, f instruction.Format) ([]instruction.Instruction, error) {
	if !isProgram(path) {
		return instruction.Open(path, f)
	}
	source, err := readSource(path, os.Stdin)
	if err != nil {
		return nil, err
	}
	result := app.Evaluate(path, source)
	if len(result.Errors) > 0 {
		e := result.Errors[0]
		return nil, fmt.Errorf("%s: line %d: %s", path, e.Line, e.Message)
	}
	return result.Instructions(), nil
}

func isProgram(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".lisp")
}
