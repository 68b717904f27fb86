package render

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func spirvBlob(words ...uint32) []byte {
	blob := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(blob[i*4:], w)
	}
	return blob
}

func TestShaderCode(t *testing.T) {
	code, err := ShaderCode(spirvBlob(spirvMagic, 0x10000, 42))
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 3 || code[2] != 42 {
		t.Errorf("decoded %v", code)
	}

	for name, blob := range map[string][]byte{
		"empty":     nil,
		"unaligned": append(spirvBlob(spirvMagic), 0),
		"magic":     spirvBlob(0xdeadbeef, 1),
	} {
		if _, err := ShaderCode(blob); !errors.Is(err, ErrMalformedShader) {
			t.Errorf("%s: err = %v, want ErrMalformedShader", name, err)
		}
	}
}

func TestLoadShaderPair(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiles.vert.spv"), spirvBlob(spirvMagic, 1), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tiles.frag.spv"), spirvBlob(spirvMagic, 2), 0644); err != nil {
		t.Fatal(err)
	}
	pair, err := LoadShaderPair(dir, "tiles")
	if err != nil {
		t.Fatal(err)
	}
	if pair.Vertex[1] != 1 || pair.Fragment[1] != 2 {
		t.Errorf("pair = %+v", pair)
	}

	if _, err := LoadShaderPair(dir, "missing"); !IsFatal(err) {
		t.Errorf("missing shader = %v, want fatal", err)
	}
}
