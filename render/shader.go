package render

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const spirvMagic = 0x07230203

//ShaderCode decodes a SPIR-V blob into the words Vulkan expects
func ShaderCode(blob []byte) ([]uint32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, errors.Wrapf(ErrMalformedShader, "length %d is not a whole number of words", len(blob))
	}
	code := sliceUint32(blob)
	if code[0] != spirvMagic {
		return nil, errors.Wrapf(ErrMalformedShader, "bad magic %#08x", code[0])
	}
	return code, nil
}

//LoadShader reads and validates a compiled shader from disk
func LoadShader(path string) ([]uint32, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fatal("load shader", errors.Wrapf(err, "read %s", path))
	}
	code, err := ShaderCode(blob)
	if err != nil {
		return nil, fatal("load shader", errors.Wrap(err, path))
	}
	return code, nil
}

//ShaderPair is the vertex and fragment stage of one pipeline
type ShaderPair struct {
	Vertex   []uint32
	Fragment []uint32
}

//LoadShaderPair loads dir/name.vert.spv and dir/name.frag.spv
func LoadShaderPair(dir, name string) (ShaderPair, error) {
	var pair ShaderPair
	var err error
	if pair.Vertex, err = LoadShader(filepath.Join(dir, name+".vert.spv")); err != nil {
		return pair, err
	}
	pair.Fragment, err = LoadShader(filepath.Join(dir, name+".frag.spv"))
	return pair, err
}

func sliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}
