package render

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestUniformSizeFitsGuaranteedLimit(t *testing.T) {
	if UniformSize != 64016 {
		t.Errorf("UniformSize = %d, want 64016", UniformSize)
	}
	if err := CheckUniformSize(UniformSize, 0); err != nil {
		t.Errorf("default limit: %v", err)
	}
	if err := CheckUniformSize(UniformSize, 1<<20); err != nil {
		t.Errorf("large device limit: %v", err)
	}
	if err := CheckUniformSize(MaxUniformBytes+1, 1<<20); !errors.Is(err, ErrUniformTooLarge) {
		t.Errorf("over 64KiB: %v", err)
	}
	if err := CheckUniformSize(UniformSize, 16384); !errors.Is(err, ErrUniformTooLarge) || !IsFatal(err) {
		t.Errorf("small device limit: %v", err)
	}
}

func TestUniformEncodeLayout(t *testing.T) {
	var u UniformPayload
	u.Time = 1.5
	u.MVPs[0][0] = 2
	u.MVPs[1][15] = 3
	u.MVPs[MaxSprites-1][5] = 4

	dst := make([]byte, UniformSize)
	for i := range dst {
		dst[i] = 0xff
	}
	if err := u.Encode(dst); err != nil {
		t.Fatal(err)
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(dst[off:])) }

	if f(0) != 1.5 {
		t.Errorf("time = %v", f(0))
	}
	for i := 4; i < 16; i++ {
		if dst[i] != 0 {
			t.Fatalf("padding byte %d = %#x", i, dst[i])
		}
	}
	if f(16) != 2 {
		t.Errorf("mvp[0][0] = %v", f(16))
	}
	if f(16+64+15*4) != 3 {
		t.Errorf("mvp[1][15] = %v", f(16+64+15*4))
	}
	if f(16+(MaxSprites-1)*64+5*4) != 4 {
		t.Errorf("last mvp = %v", f(16+(MaxSprites-1)*64+5*4))
	}

	if err := u.Encode(make([]byte, UniformSize-1)); err == nil {
		t.Error("short destination accepted")
	}
}

func TestPushConstantBytes(t *testing.T) {
	p := PushConstants{Color: [4]float32{1, 0.5, 0.25, 1}, TextureIndex: 7}
	p.MVP[0] = 1
	data := p.Bytes()
	if len(data) != PushConstantSize || PushConstantSize != 84 {
		t.Fatalf("len = %d, PushConstantSize = %d", len(data), PushConstantSize)
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(data[0:])) != 1 {
		t.Error("mvp not at offset 0")
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(data[68:])) != 0.5 {
		t.Error("color not at offset 64")
	}
	if binary.LittleEndian.Uint32(data[80:]) != 7 {
		t.Error("texture index not at offset 80")
	}
}
