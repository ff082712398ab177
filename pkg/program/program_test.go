package program

import (
	"strings"
	"testing"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/interval"
)

func TestNewProgram(t *testing.T) {
	p := New()
	if p.Regions == nil {
		t.Fatal("Regions map should be initialized")
	}
	if p.Len() != 0 {
		t.Errorf("empty program should have 0 steps, got %d", p.Len())
	}
}

func TestDefineAndLookup(t *testing.T) {
	p := New()
	core := box.Cube(0, 9)
	p.Define("core", core, 3)

	got, ok := p.Lookup("core")
	if !ok || got != core {
		t.Errorf("Lookup(core) = %v, %v; want %v", got, ok, core)
	}
	if p.MustLookup("core") != core {
		t.Error("MustLookup returned wrong region")
	}
	if _, ok := p.Lookup("nonexistent"); ok {
		t.Error("Lookup should miss for an undefined name")
	}
	if p.Regions["core"].Line != 3 {
		t.Errorf("line = %d, want 3", p.Regions["core"].Line)
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup should panic for a missing name")
		}
	}()
	New().MustLookup("ghost")
}

func TestInstructionsPreserveOrder(t *testing.T) {
	instrs := []instruction.Instruction{
		instruction.On(box.Cube(0, 9)),
		instruction.Off(box.Cube(3, 6)),
		instruction.On(box.Cube(5, 5)),
	}
	p := FromInstructions(instrs)
	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}
	got := p.Instructions()
	for i := range instrs {
		if got[i] != instrs[i] {
			t.Errorf("step %d = %v, want %v", i, got[i], instrs[i])
		}
	}
	if p.Steps[2].Line != 3 {
		t.Errorf("step 3 line = %d, want 3", p.Steps[2].Line)
	}
}

func TestValidate(t *testing.T) {
	malformed := instruction.Instruction{On: true, Region: box.Box{
		X: interval.Range{Lo: 0, Hi: 1},
		Y: interval.Range{Lo: 0, Hi: 1},
		Z: interval.Range{Lo: 4, Hi: 2},
	}}

	tests := []struct {
		name     string
		build    func() *Program
		wantErrs int
		wantWarn int
		wantMsg  string
	}{
		{
			name: "clean",
			build: func() *Program {
				p := New()
				p.Define("core", box.Cube(0, 9), 1)
				p.Add(Step{Instruction: instruction.On(box.Cube(0, 9)), Name: "core", Line: 2})
				p.Add(Step{Instruction: instruction.Off(box.Cube(3, 6)), Line: 3})
				return p
			},
		},
		{
			name:     "empty",
			build:    New,
			wantWarn: 1,
			wantMsg:  "no instructions",
		},
		{
			name: "malformed region",
			build: func() *Program {
				p := New()
				p.Add(Step{Instruction: malformed, Line: 7})
				return p
			},
			wantErrs: 1,
			wantMsg:  "z=4..2",
		},
		{
			name: "off first",
			build: func() *Program {
				return FromInstructions([]instruction.Instruction{
					instruction.Off(box.Cube(0, 1)),
					instruction.On(box.Cube(0, 1)),
				})
			},
			wantWarn: 1,
			wantMsg:  "off before any on",
		},
		{
			name: "undefined name",
			build: func() *Program {
				p := New()
				p.Add(Step{Instruction: instruction.On(box.Cube(0, 1)), Name: "ghost"})
				return p
			},
			wantErrs: 1,
			wantMsg:  `"ghost" is not defined`,
		},
		{
			name: "redefined and unused",
			build: func() *Program {
				p := New()
				p.Define("a", box.Cube(0, 1), 1)
				p.Define("a", box.Cube(0, 2), 2)
				p.Add(Step{Instruction: instruction.On(box.Cube(0, 3))})
				return p
			},
			wantWarn: 2,
			wantMsg:  "more than once",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := Validate(tt.build())
			var nErr, nWarn int
			var all []string
			for _, f := range findings {
				all = append(all, f.Error())
				if f.Severity == SeverityError {
					nErr++
				} else {
					nWarn++
				}
			}
			if nErr != tt.wantErrs || nWarn != tt.wantWarn {
				t.Fatalf("got %d errors, %d warnings; want %d, %d\n%s",
					nErr, nWarn, tt.wantErrs, tt.wantWarn, strings.Join(all, "\n"))
			}
			if HasErrors(findings) != (tt.wantErrs > 0) {
				t.Errorf("HasErrors() = %v", HasErrors(findings))
			}
			if tt.wantMsg != "" && !strings.Contains(strings.Join(all, "\n"), tt.wantMsg) {
				t.Errorf("findings %q do not mention %q", all, tt.wantMsg)
			}
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Message: "m", Severity: SeverityWarning}, "[warning] m"},
		{ValidationError{Step: 2, Message: "m"}, "[error] step 2: m"},
		{ValidationError{Step: 2, Line: 9, Message: "m"}, "[error] step 2 (line 9): m"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
