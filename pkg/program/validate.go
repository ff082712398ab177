package program

import (
	"fmt"
	"sort"
)

// ValidationSeverity indicates whether a finding blocks evaluation or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Step     int                // 1-based step number, 0 if program-level
	Line     int                // source line of the step, 0 if unknown
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	switch {
	case e.Step == 0:
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("[%s] step %d (line %d): %s", e.Severity, e.Step, e.Line, e.Message)
	default:
		return fmt.Sprintf("[%s] step %d: %s", e.Severity, e.Step, e.Message)
	}
}

// Validate checks p without mutating it. An empty slice means p is valid
// and warning-free.
func Validate(p *Program) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateSteps(p)...)
	errs = append(errs, validateNames(p)...)
	return errs
}

// HasErrors reports whether any finding has SeverityError.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateSteps(p *Program) []ValidationError {
	if len(p.Steps) == 0 {
		return []ValidationError{{
			Message:  "program has no instructions",
			Severity: SeverityWarning,
		}}
	}

	var errs []ValidationError
	seenOn := false
	for i, s := range p.Steps {
		n := i + 1
		if err := s.Instruction.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Step:     n,
				Line:     s.Line,
				Message:  err.Error(),
				Severity: SeverityError,
			})
			continue
		}
		if s.Name != "" {
			r, ok := p.Regions[s.Name]
			if !ok {
				errs = append(errs, ValidationError{
					Step:     n,
					Line:     s.Line,
					Message:  fmt.Sprintf("region %q is not defined", s.Name),
					Severity: SeverityError,
				})
			} else if r.Box != s.Instruction.Region {
				errs = append(errs, ValidationError{
					Step:     n,
					Line:     s.Line,
					Message:  fmt.Sprintf("region %q was redefined after this step used it", s.Name),
					Severity: SeverityWarning,
				})
			}
		}
		if s.Instruction.On {
			seenOn = true
		} else if !seenOn {
			errs = append(errs, ValidationError{
				Step:     n,
				Line:     s.Line,
				Message:  "off before any on has no effect",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func validateNames(p *Program) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool)
	for _, name := range p.redefined {
		if seen[name] {
			continue
		}
		seen[name] = true
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("region %q defined more than once", name),
			Severity: SeverityWarning,
		})
	}

	used := make(map[string]bool)
	for _, s := range p.Steps {
		if s.Name != "" {
			used[s.Name] = true
		}
	}
	names := make([]string, 0, len(p.Regions))
	for name := range p.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := p.Regions[name]
		if err := r.Box.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Line:     r.Line,
				Message:  fmt.Sprintf("region %q: %v", name, err),
				Severity: SeverityError,
			})
			continue
		}
		if !used[name] {
			errs = append(errs, ValidationError{
				Line:     r.Line,
				Message:  fmt.Sprintf("region %q is never used", name),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
