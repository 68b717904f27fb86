package render

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

const (
	//MaxSprites is the number of transforms the uniform block carries
	MaxSprites = 1000
	//MaxUniformBytes is the uniform block limit every supported device guarantees
	MaxUniformBytes = 65536

	uniformMatrixOffset = 16
	mat4Bytes           = 64

	//UniformSize is the std140 size of the uniform block: t, padding, then the matrices
	UniformSize = uniformMatrixOffset + MaxSprites*mat4Bytes

	//PushConstantSize covers mvp, color and texture index
	PushConstantSize = mat4Bytes + 16 + 4
)

//Mat4 is a column major 4x4 matrix
type Mat4 [16]float32

//UniformPayload is rewritten every frame into the slot's mapped uniform buffer
type UniformPayload struct {
	Time float32
	MVPs [MaxSprites]Mat4
}

//CheckUniformSize fails when size does not fit the device's uniform range
func CheckUniformSize(size uint64, deviceLimit uint32) error {
	limit := uint64(MaxUniformBytes)
	if deviceLimit != 0 && uint64(deviceLimit) < limit {
		limit = uint64(deviceLimit)
	}
	if size > limit {
		return fatal("create uniform buffer", errors.Wrapf(ErrUniformTooLarge, "%d bytes, limit %d", size, limit))
	}
	return nil
}

//Encode writes the std140 layout of u into dst
func (u *UniformPayload) Encode(dst []byte) error {
	if len(dst) < UniformSize {
		return errors.Errorf("uniform destination holds %d bytes, need %d", len(dst), UniformSize)
	}
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(u.Time))
	for i := 4; i < uniformMatrixOffset; i++ {
		dst[i] = 0
	}
	off := uniformMatrixOffset
	for i := range u.MVPs {
		putFloats(dst[off:], u.MVPs[i][:])
		off += mat4Bytes
	}
	return nil
}

//PushConstants drive the tile pipeline
type PushConstants struct {
	MVP          Mat4
	Color        [4]float32
	TextureIndex uint32
}

func (p PushConstants) Bytes() []byte {
	data := make([]byte, PushConstantSize)
	putFloats(data, p.MVP[:])
	putFloats(data[mat4Bytes:], p.Color[:])
	binary.LittleEndian.PutUint32(data[mat4Bytes+16:], p.TextureIndex)
	return data
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}
