// Package program holds the ordered instruction program produced by the
// region DSL, together with the named regions it was built from.
//
// A Program is built once per evaluation and not mutated afterwards.
package program

import (
	"fmt"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/instruction"
)

// Step is one instruction in program order.
type Step struct {
	Instruction instruction.Instruction `json:"instruction"`
	Name        string                  `json:"name,omitempty"` // named region the step used, if any
	Line        int                     `json:"line,omitempty"` // source line, 0 when unknown
}

// Region is a named region bound by defregion.
type Region struct {
	Box  box.Box `json:"box"`
	Line int     `json:"line,omitempty"`
}

// Program is an ordered list of steps plus the region names they refer to.
type Program struct {
	Steps   []Step            `json:"steps"`
	Regions map[string]Region `json:"regions"`

	redefined []string
}

// New creates an empty Program.
func New() *Program {
	return &Program{Regions: make(map[string]Region)}
}

// Add appends a step.
func (p *Program) Add(s Step) {
	p.Steps = append(p.Steps, s)
}

// Define binds name to b. Rebinding a name replaces the region; Validate
// reports it as a warning.
func (p *Program) Define(name string, b box.Box, line int) {
	if _, ok := p.Regions[name]; ok {
		p.redefined = append(p.redefined, name)
	}
	p.Regions[name] = Region{Box: b, Line: line}
}

// Lookup returns the region bound to name.
func (p *Program) Lookup(name string) (box.Box, bool) {
	r, ok := p.Regions[name]
	return r.Box, ok
}

// MustLookup returns the region bound to name, or panics.
func (p *Program) MustLookup(name string) box.Box {
	b, ok := p.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("program: no region named %q", name))
	}
	return b
}

// Instructions returns the program's instructions in order.
func (p *Program) Instructions() []instruction.Instruction {
	out := make([]instruction.Instruction, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Instruction
	}
	return out
}

// Len returns the number of steps.
func (p *Program) Len() int {
	return len(p.Steps)
}

// FromInstructions wraps a plain instruction stream, numbering steps from
// line 1.
func FromInstructions(instrs []instruction.Instruction) *Program {
	p := New()
	for i, in := range instrs {
		p.Add(Step{Instruction: in, Line: i + 1})
	}
	return p
}
