package sprites

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/andewx/dieselsprite/render"
	lin "github.com/xlab/linmath"
)

const (
	//texture slot of the first monster sheet, tiles.png is slot 0
	monsterTexture = 1
	monsterSheets  = 4
	//each sheet is a 4x4 grid of sprites
	sheetCells = 4

	monsterSize      = 2.0
	spriteVertexSize = 40
)

//Monster wanders the grid and bounces off its edges
type Monster struct {
	Pos     [3]float32
	Speed   [2]float32
	Color   [4]float32
	Texture uint32
}

func newMonster(rng *rand.Rand, i int) Monster {
	m := Monster{
		Pos: [3]float32{
			rng.Float32() * GridWidth,
			rng.Float32() * GridHeight,
			rng.Float32()*18 + 1,
		},
		Speed: [2]float32{
			rng.Float32()*10 - 5,
			rng.Float32()*10 - 5,
		},
		Texture: uint32(monsterTexture + (i/16)%monsterSheets),
	}
	//deeper monsters fade to blue
	fade := m.Pos[2] / 20
	m.Color = [4]float32{1 - fade, 1 - fade, 1 - fade*0.6, 1}
	return m
}

//Step moves the monster by dt seconds. An axis at or past its edge while moving outward turns
//around instead of moving.
func (m *Monster) Step(dt float32) {
	limits := [2]float32{GridWidth, GridHeight}
	for axis := 0; axis < 2; axis++ {
		switch {
		case m.Speed[axis] > 0 && m.Pos[axis] >= limits[axis]:
			m.Speed[axis] = -m.Speed[axis]
		case m.Speed[axis] < 0 && m.Pos[axis] <= 0:
			m.Speed[axis] = -m.Speed[axis]
		default:
			m.Pos[axis] += dt * m.Speed[axis]
		}
	}
}

//Model is the monster's model matrix at time t with the bob and pulse applied
func (m *Monster) Model(i int, t float32) lin.Mat4x4 {
	phase := float64(i * 5)
	bob := float32(math.Sin(float64(t)*4+phase)) * 0.2
	pulse := float32(math.Sin(float64(t)*2+phase)) * 0.15

	var model lin.Mat4x4
	model.Identity()
	model.TranslateInPlace(-monsterSize/2, -monsterSize/2, 0)
	model.TranslateInPlace(m.Pos[0], m.Pos[1]+bob, m.Pos[2])
	model.ScaleAniso(&model, monsterSize*(1+pulse), monsterSize*(1-pulse), 1)
	return model
}

//spriteVertices packs six identical vertices per monster, the sprite shader expands them into a
//quad by vertex index
func spriteVertices(monsters []Monster) []byte {
	data := make([]byte, 0, len(monsters)*6*spriteVertexSize)
	const cell = float32(1) / sheetCells
	for i, m := range monsters {
		u := cell * float32(i%sheetCells)
		v := cell * float32((i%(sheetCells*sheetCells))/sheetCells)
		for j := 0; j < 6; j++ {
			data = appendFloats(data, m.Color[0], m.Color[1], m.Color[2], m.Color[3], u, v, u+cell, v+cell)
			data = binary.LittleEndian.AppendUint32(data, m.Texture)
			data = binary.LittleEndian.AppendUint32(data, uint32(i))
		}
	}
	return data
}

func toMat4(m *lin.Mat4x4) render.Mat4 {
	var out render.Mat4
	copy(out[:], m.Slice())
	return out
}
