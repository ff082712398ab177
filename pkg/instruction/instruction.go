// Package instruction defines the region-update instructions consumed by
// the region-set engine and the readers that produce them from text, JSON
// and zstd-compressed streams.
package instruction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/chazu/cuboid/pkg/box"
)

// DefaultInitRegion is the initialization cube used by InitRegion when the
// caller does not supply one.
var DefaultInitRegion = box.Cube(-50, 50)

// Instruction turns every cell of Region on or off.
type Instruction struct {
	Region box.Box `json:"region"`
	On     bool    `json:"on"`
}

// On returns an instruction switching region on.
func On(region box.Box) Instruction {
	return Instruction{Region: region, On: true}
}

// Off returns an instruction switching region off.
func Off(region box.Box) Instruction {
	return Instruction{Region: region}
}

// State returns "on" or "off".
func (in Instruction) State() string {
	if in.On {
		return "on"
	}
	return "off"
}

// String renders the instruction in the line format ParseReader accepts.
func (in Instruction) String() string {
	return in.State() + " " + in.Region.String()
}

// Validate rejects malformed, out-of-range or uncountably large regions.
func (in Instruction) Validate() error {
	if err := in.Region.Validate(); err != nil {
		return fmt.Errorf("%s instruction: %w", in.State(), err)
	}
	return nil
}

// InitRegion restricts every instruction to bounds. Instructions whose
// region lies wholly outside bounds are dropped.
func InitRegion(instrs []Instruction, bounds box.Box) []Instruction {
	out := make([]Instruction, 0, len(instrs))
	for _, in := range instrs {
		clipped, ok := in.Region.Clamp(bounds)
		if !ok {
			continue
		}
		out = append(out, Instruction{Region: clipped, On: in.On})
	}
	return out
}

// Digest returns a stable hex SHA-256 of the instruction stream. Two streams
// with the same digest produce the same volume.
func Digest(instrs []Instruction) string {
	h := sha256.New()
	for _, in := range instrs {
		fmt.Fprintln(h, in.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}
