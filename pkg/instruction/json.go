package instruction

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/chazu/cuboid/pkg/box"
)

//go:embed instructions.schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("instructions.schema.json", schemaSource)

// jsonInstruction is the wire shape of one element of a JSON stream:
//
//	{"state": "on", "x": [-20, 26], "y": [-36, 17], "z": [-47, 7]}
type jsonInstruction struct {
	State string   `json:"state"`
	X     [2]int64 `json:"x"`
	Y     [2]int64 `json:"y"`
	Z     [2]int64 `json:"z"`
}

// DecodeJSON reads a JSON array of instructions. The document is checked
// against the embedded schema before any region is built, so shape errors
// are reported with their JSON pointer.
func DecodeJSON(r io.Reader) ([]Instruction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading instructions: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding instructions: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("instructions do not match schema: %w", err)
	}

	var items []jsonInstruction
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding instructions: %w", err)
	}

	out := make([]Instruction, 0, len(items))
	for i, it := range items {
		region, err := box.FromBounds(it.X[0], it.X[1], it.Y[0], it.Y[1], it.Z[0], it.Z[1])
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		out = append(out, Instruction{Region: region, On: it.State == "on"})
	}
	return out, nil
}

// EncodeJSON writes instrs in the format DecodeJSON reads.
func EncodeJSON(w io.Writer, instrs []Instruction) error {
	items := make([]jsonInstruction, len(instrs))
	for i, in := range instrs {
		r := in.Region
		items[i] = jsonInstruction{
			State: in.State(),
			X:     [2]int64{r.X.Lo, r.X.Hi},
			Y:     [2]int64{r.Y.Lo, r.Y.Hi},
			Z:     [2]int64{r.Z.Lo, r.Z.Hi},
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
