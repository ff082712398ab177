package instruction

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cuboid/pkg/box"
)

func sampleStream() []Instruction {
	return []Instruction{
		On(box.MustFromBounds(0, 9, 0, 9, 0, 9)),
		Off(box.MustFromBounds(3, 6, 3, 6, 3, 6)),
		On(box.MustFromBounds(-5, -1, 100, 200, -3000, 3000)),
	}
}

func TestDecodeJSON(t *testing.T) {
	src := `[
	  {"state": "on",  "x": [10, 12], "y": [10, 12], "z": [10, 12]},
	  {"state": "off", "x": [-3, 11], "y": [9, 11],  "z": [9, 11]}
	]`

	got, err := DecodeJSON(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, On(box.Cube(10, 12)), got[0])
	assert.Equal(t, Off(box.MustFromBounds(-3, 11, 9, 11, 9, 11)), got[1])
}

func TestDecodeJSONSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not an array", `{"state": "on"}`},
		{"bad state", `[{"state": "maybe", "x": [0, 1], "y": [0, 1], "z": [0, 1]}]`},
		{"missing axis", `[{"state": "on", "x": [0, 1], "y": [0, 1]}]`},
		{"three bounds", `[{"state": "on", "x": [0, 1, 2], "y": [0, 1], "z": [0, 1]}]`},
		{"fractional bound", `[{"state": "on", "x": [0, 1.5], "y": [0, 1], "z": [0, 1]}]`},
		{"extra field", `[{"state": "on", "x": [0, 1], "y": [0, 1], "z": [0, 1], "w": [0, 1]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema")
		})
	}
}

func TestDecodeJSONReversedRange(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`[{"state": "on", "x": [5, 1], "y": [0, 1], "z": [0, 1]}]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, box.ErrMalformed)
}

func TestEncodeJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, sampleStream()))

	got, err := DecodeJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleStream(), got)
}

func TestOpenText(t *testing.T) {
	got, err := Open("testdata/small.txt", FormatAuto)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.False(t, got[2].On)
}

func TestOpenJSONByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.json")
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, sampleStream()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := Open(path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, sampleStream(), got)
}

func TestOpenCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.txt.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteCompressed(f, sampleStream()))
	require.NoError(t, f.Close())

	got, err := Open(path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, sampleStream(), got)
}

func TestOpenReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("on x=1..0,y=0..0,z=0..0\n"), 0o644))

	_, err := Open(path, FormatText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "line 1")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.txt"), FormatAuto)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "auto": FormatAuto, "TEXT": FormatText, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}
