package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/interval"
	"github.com/chazu/cuboid/pkg/program"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms region DSL source before passing it to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: set-region -> set_region
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpRegion wraps a box.Box so it can be passed between builtins. name is
// set when the value came from defregion or region.
type sexpRegion struct {
	b    box.Box
	name string
}

func (r *sexpRegion) SexpString(ps *zygo.PrintState) string {
	if r.name != "" {
		return fmt.Sprintf("(region %q)", r.name)
	}
	return fmt.Sprintf("(cuboid :x %d %d :y %d %d :z %d %d)",
		r.b.X.Lo, r.b.X.Hi, r.b.Y.Lo, r.b.Y.Hi, r.b.Z.Lo, r.b.Z.Hi)
}
func (r *sexpRegion) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// axisArgs holds the result of parsing a mixed positional and
// ":axis lo hi" argument list.
type axisArgs struct {
	ranges     map[string]interval.Range
	positional []zygo.Sexp
}

// parseAxisArgs separates ":x lo hi" style triples from positional
// arguments. Only the keywords x, y and z are accepted.
func parseAxisArgs(args []zygo.Sexp) (axisArgs, error) {
	result := axisArgs{ranges: make(map[string]interval.Range)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if name != "x" && name != "y" && name != "z" {
			return result, fmt.Errorf("unknown keyword :%s, expected :x, :y or :z", name)
		}
		if _, dup := result.ranges[name]; dup {
			return result, fmt.Errorf(":%s given twice", name)
		}
		if i+2 >= len(args) {
			return result, fmt.Errorf(":%s needs two bounds", name)
		}
		lo, err := toInt64(args[i+1])
		if err != nil {
			return result, fmt.Errorf(":%s lower bound: %w", name, err)
		}
		hi, err := toInt64(args[i+2])
		if err != nil {
			return result, fmt.Errorf(":%s upper bound: %w", name, err)
		}
		r, err := interval.New(lo, hi)
		if err != nil {
			return result, fmt.Errorf(":%s: %w", name, err)
		}
		result.ranges[name] = r
		i += 3
	}
	return result, nil
}

// box builds a box from parsed axis ranges. All three axes are required.
func (a axisArgs) box() (box.Box, error) {
	var b box.Box
	for _, axis := range []struct {
		name string
		dst  *interval.Range
	}{{"x", &b.X}, {"y", &b.Y}, {"z", &b.Z}} {
		r, ok := a.ranges[axis.name]
		if !ok {
			return box.Box{}, fmt.Errorf("missing :%s range", axis.name)
		}
		*axis.dst = r
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toInt64 extracts an integer from a Sexp. Floats are accepted only when
// they hold an integral value.
func toInt64(s zygo.Sexp) (int64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return v.Val, nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) && math.Abs(v.Val) < math.MaxInt64 {
			return int64(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %v", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toRegion extracts a region from a sexpRegion, or looks up a plain string
// as a region name in p.
func toRegion(s zygo.Sexp, p *program.Program) (*sexpRegion, error) {
	switch v := s.(type) {
	case *sexpRegion:
		return v, nil
	case *zygo.SexpStr:
		if _, kw := isKW(v); kw {
			break
		}
		b, ok := p.Lookup(v.S)
		if !ok {
			return nil, fmt.Errorf("no region named %q", v.S)
		}
		return &sexpRegion{b: b, name: v.S}, nil
	}
	return nil, fmt.Errorf("expected region, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the region DSL builtins into a zygomys
// environment. The builtins append steps to and bind names in p.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *program.Program) {

	// -----------------------------------------------------------------------
	// (cuboid :x 10 12 :y 10 12 :z 10 12)
	// -----------------------------------------------------------------------
	env.AddFunction("cuboid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		aa, err := parseAxisArgs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cuboid: %w", err)
		}
		if len(aa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("cuboid: unexpected argument %s", aa.positional[0].SexpString(nil))
		}
		b, err := aa.box()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cuboid: %w", err)
		}
		return &sexpRegion{b: b}, nil
	})

	// -----------------------------------------------------------------------
	// (cube -50 50)
	// -----------------------------------------------------------------------
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("cube requires exactly 2 arguments, got %d", len(args))
		}
		lo, err := toInt64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: lo: %w", err)
		}
		hi, err := toInt64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: hi: %w", err)
		}
		b := box.Cube(lo, hi)
		if err := b.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: %w", err)
		}
		return &sexpRegion{b: b}, nil
	})

	// -----------------------------------------------------------------------
	// (on region ...) / (on "name") / (on :x lo hi :y lo hi :z lo hi)
	// (off ...) takes the same forms.
	// -----------------------------------------------------------------------
	addStep := func(state bool) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			aa, err := parseAxisArgs(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}

			var regions []*sexpRegion
			if len(aa.ranges) > 0 {
				if len(aa.positional) > 0 {
					return zygo.SexpNull, fmt.Errorf("%s: cannot mix axis ranges with region arguments", name)
				}
				b, err := aa.box()
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
				}
				regions = append(regions, &sexpRegion{b: b})
			}
			for i, arg := range aa.positional {
				r, err := toRegion(arg, p)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
				}
				regions = append(regions, r)
			}
			if len(regions) == 0 {
				return zygo.SexpNull, fmt.Errorf("%s requires a region", name)
			}

			for _, r := range regions {
				p.Add(program.Step{
					Instruction: instruction.Instruction{Region: r.b, On: state},
					Name:        r.name,
				})
			}
			return regions[len(regions)-1], nil
		}
	}
	env.AddFunction("on", addStep(true))
	env.AddFunction("off", addStep(false))

	// -----------------------------------------------------------------------
	// (step "on x=10..12,y=10..12,z=10..12")
	// -----------------------------------------------------------------------
	env.AddFunction("step", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("step requires at least one instruction line")
		}
		var last *sexpRegion
		for _, arg := range args {
			line, err := toString(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("step: %w", err)
			}
			in, err := instruction.Parse(line)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("step: %w", err)
			}
			p.Add(program.Step{Instruction: in})
			last = &sexpRegion{b: in.Region}
		}
		return last, nil
	})

	// -----------------------------------------------------------------------
	// (defregion "name" region)
	// -----------------------------------------------------------------------
	env.AddFunction("defregion", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defregion requires a name and a region")
		}
		regionName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defregion: name: %w", err)
		}
		if regionName == "" {
			return zygo.SexpNull, fmt.Errorf("defregion: name must not be empty")
		}
		r, err := toRegion(args[1], p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defregion: %w", err)
		}
		p.Define(regionName, r.b, 0)
		return &sexpRegion{b: r.b, name: regionName}, nil
	})

	// -----------------------------------------------------------------------
	// (region "name")
	// -----------------------------------------------------------------------
	env.AddFunction("region", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("region requires a name argument")
		}
		regionName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("region: name: %w", err)
		}
		b, ok := p.Lookup(regionName)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("region: no region named %q", regionName)
		}
		return &sexpRegion{b: b, name: regionName}, nil
	})

	// -----------------------------------------------------------------------
	// (translate region dx dy dz)
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("translate requires a region and 3 offsets, got %d arguments", len(args))
		}
		r, err := toRegion(args[0], p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		var d [3]int64
		for i := range d {
			d[i], err = toInt64(args[i+1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("translate: offset %d: %w", i+1, err)
			}
		}
		b := r.b.Translate(d[0], d[1], d[2])
		if err := b.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpRegion{b: b}, nil
	})

	// -----------------------------------------------------------------------
	// (intersect a b) returns nil when the regions are disjoint.
	// -----------------------------------------------------------------------
	env.AddFunction("intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("intersect requires exactly 2 regions, got %d", len(args))
		}
		a, err := toRegion(args[0], p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: %w", err)
		}
		b, err := toRegion(args[1], p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: %w", err)
		}
		ib, ok := box.Intersect(a.b, b.b)
		if !ok {
			return zygo.SexpNull, nil
		}
		return &sexpRegion{b: ib}, nil
	})

	// -----------------------------------------------------------------------
	// (volume region)
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("volume requires a region argument")
		}
		r, err := toRegion(args[0], p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: %w", err)
		}
		v, err := r.b.CheckedVolume()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: %w", err)
		}
		if v > math.MaxInt64 {
			return zygo.SexpNull, fmt.Errorf("volume: %d does not fit in an integer", v)
		}
		return &zygo.SexpInt{Val: int64(v)}, nil
	})
}
