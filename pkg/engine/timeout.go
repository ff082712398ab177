package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/cuboid/pkg/program"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a program takes longer than the engine's
	// timeout to evaluate. A runaway loop in a script is the usual cause.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrSuperseded is returned to an Evaluate call whose program finished
	// after a newer Evaluate call started on the same Engine.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries one evaluation out of its goroutine.
type evalResult struct {
	program *program.Program
	errors  []EvalError
	err     error
}

// wait blocks until the evaluation numbered gen reports on ch or timeout
// elapses. Each Evaluate call takes the next generation number; only the
// newest one may hand its program back, so a slow script cannot replace the
// instruction stream of a later edit.
//
// A timed-out interpreter goroutine keeps running. It writes into a
// buffered channel that nobody reads, and is collected once it returns.
func (e *Engine) wait(ch <-chan evalResult, gen uint64, timeout time.Duration) (*program.Program, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.program, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
