package instruction

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Format selects the decoder used for an instruction stream.
type Format int

const (
	FormatAuto Format = iota // pick by file extension
	FormatText               // one "on x=..,y=..,z=.." line per instruction
	FormatJSON               // JSON array, see DecodeJSON
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a config or flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatAuto, fmt.Errorf("unknown input format %q, expected auto, text or json", s)
}

// Decode reads instrs from r in the given format. FormatAuto is treated as
// text.
func Decode(r io.Reader, f Format) ([]Instruction, error) {
	if f == FormatJSON {
		return DecodeJSON(r)
	}
	return ParseReader(r)
}

// Open reads an instruction file. A ".zst" suffix is decompressed on the fly,
// and with FormatAuto the remaining extension chooses the decoder (".json"
// for JSON, anything else for text). The path "-" reads stdin.
func Open(path string, f Format) ([]Instruction, error) {
	var (
		r    io.Reader
		name = path
	)
	if path == "-" {
		r = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening instructions: %w", err)
		}
		defer file.Close()
		r = file
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
		name = strings.TrimSuffix(name, ".zst")
	}

	if f == FormatAuto && strings.EqualFold(filepath.Ext(name), ".json") {
		f = FormatJSON
	}
	instrs, err := Decode(r, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return instrs, nil
}

// WriteCompressed writes instrs as zstd-compressed text lines.
func WriteCompressed(w io.Writer, instrs []Instruction) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	for _, in := range instrs {
		if _, err := fmt.Fprintln(enc, in.String()); err != nil {
			_ = enc.Close()
			return err
		}
	}
	return enc.Close()
}
