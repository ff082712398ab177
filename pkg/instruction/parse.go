package instruction

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/interval"
)

// ParseError reports a line that could not be turned into an Instruction.
type ParseError struct {
	Line int    // 1-based; 0 when parsing a lone line
	Text string // the offending input
	Msg  string
	Err  error // underlying cause, if any
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a single instruction of the form
//
//	on x=-20..26,y=-36..17,z=-47..7
//
// Axes may appear in any order but each exactly once.
func Parse(line string) (Instruction, error) {
	line = strings.TrimSpace(line)
	state, spec, ok := strings.Cut(line, " ")
	if !ok {
		return Instruction{}, &ParseError{Text: line, Msg: fmt.Sprintf("expected \"on|off <ranges>\", got %q", line)}
	}

	var in Instruction
	switch state {
	case "on":
		in.On = true
	case "off":
	default:
		return Instruction{}, &ParseError{Text: line, Msg: fmt.Sprintf("unknown state %q, expected on or off", state)}
	}

	var (
		axes [3]interval.Range
		seen [3]bool
	)
	parts := strings.Split(strings.TrimSpace(spec), ",")
	if len(parts) != 3 {
		return Instruction{}, &ParseError{Text: line, Msg: fmt.Sprintf("expected 3 axis ranges, got %d", len(parts))}
	}
	for _, part := range parts {
		name, bounds, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return Instruction{}, &ParseError{Text: line, Msg: fmt.Sprintf("axis %q is missing '='", part)}
		}
		idx := strings.Index("xyz", name)
		if len(name) != 1 || idx < 0 {
			return Instruction{}, &ParseError{Text: line, Msg: fmt.Sprintf("unknown axis %q", name)}
		}
		if seen[idx] {
			return Instruction{}, &ParseError{Text: line, Msg: fmt.Sprintf("axis %s given twice", name)}
		}
		seen[idx] = true

		r, err := ParseRange(bounds)
		if err != nil {
			return Instruction{}, &ParseError{Text: line, Msg: fmt.Sprintf("axis %s: %v", name, err), Err: err}
		}
		axes[idx] = r
	}

	region, err := box.New(axes[0], axes[1], axes[2])
	if err != nil {
		return Instruction{}, &ParseError{Text: line, Msg: err.Error(), Err: err}
	}
	in.Region = region
	return in, nil
}

// ParseRange parses a closed "lo..hi" range.
func ParseRange(s string) (interval.Range, error) {
	loStr, hiStr, ok := strings.Cut(s, "..")
	if !ok {
		return interval.Range{}, fmt.Errorf("range %q is missing '..'", s)
	}
	lo, err := strconv.ParseInt(strings.TrimSpace(loStr), 10, 64)
	if err != nil {
		return interval.Range{}, fmt.Errorf("bad lower bound: %w", err)
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(hiStr), 10, 64)
	if err != nil {
		return interval.Range{}, fmt.Errorf("bad upper bound: %w", err)
	}
	return interval.New(lo, hi)
}

// ParseReader parses one instruction per line. Blank lines and lines
// starting with '#' are skipped. The first bad line aborts parsing.
func ParseReader(r io.Reader) ([]Instruction, error) {
	var out []Instruction
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		in, err := Parse(text)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Line = lineNo
			}
			return nil, err
		}
		out = append(out, in)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading instructions: %w", err)
	}
	return out, nil
}
