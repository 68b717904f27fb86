//Package sprites is the sample scene: a random tile map with a crowd of bobbing monsters over it
package sprites

import (
	"encoding/binary"
	"math"
	"math/rand"
)

//Grid size in tiles, one tile is one unit of the projection
const (
	GridWidth  = 32
	GridHeight = 24
)

//Tile set layout of tiles.png
const (
	tilesetColumns = 3
	tilesetRows    = 3
	tilesetSize    = tilesetColumns * tilesetRows

	//Empty marks a cell with no tile
	Empty = tilesetSize
)

const tileVertexStride = 20

//Tilemap is a grid of tile set indices
type Tilemap struct {
	cells [GridWidth * GridHeight]uint8
}

func cellIndex(x, y int) int {
	return y*GridWidth + x
}

//NewTilemap fills the border with tile 0 and places a random tile in roughly a third of the
//interior cells
func NewTilemap(rng *rand.Rand) *Tilemap {
	m := &Tilemap{}
	for y := 0; y < GridHeight; y++ {
		for x := 0; x < GridWidth; x++ {
			idx := cellIndex(x, y)
			switch {
			case x == 0 || y == 0 || x == GridWidth-1 || y == GridHeight-1:
				m.cells[idx] = 0
			case rng.Intn(3) >= 2:
				m.cells[idx] = uint8(rng.Intn(tilesetSize))
			default:
				m.cells[idx] = Empty
			}
		}
	}
	return m
}

func (m *Tilemap) At(x, y int) uint8 {
	return m.cells[cellIndex(x, y)]
}

//Occupied counts the non empty cells
func (m *Tilemap) Occupied() int {
	n := 0
	for _, c := range m.cells {
		if c != Empty {
			n++
		}
	}
	return n
}

//Mesh builds one quad per occupied cell: four vertices of pos vec3 and uv vec2, six 16 bit indices
func (m *Tilemap) Mesh() (vertices, indices []byte, indexCount uint32) {
	n := m.Occupied()
	vertices = make([]byte, 0, n*4*tileVertexStride)
	indices = make([]byte, 0, n*6*2)

	step := [2]float32{1.0 / tilesetColumns, 1.0 / tilesetRows}
	var base uint16
	for x := 0; x < GridWidth; x++ {
		for y := 0; y < GridHeight; y++ {
			tile := m.At(x, y)
			if tile == Empty {
				continue
			}
			u := float32(int(tile)%tilesetColumns) * step[0]
			v := float32(int(tile)/tilesetColumns) * step[1]
			fx, fy := float32(x), float32(y)

			vertices = appendTileVertex(vertices, fx, fy, u, v+step[1])
			vertices = appendTileVertex(vertices, fx+1, fy, u+step[0], v+step[1])
			vertices = appendTileVertex(vertices, fx+1, fy+1, u+step[0], v)
			vertices = appendTileVertex(vertices, fx, fy+1, u, v)

			for _, i := range [6]uint16{0, 1, 2, 2, 3, 0} {
				indices = binary.LittleEndian.AppendUint16(indices, base+i)
			}
			base += 4
		}
	}
	return vertices, indices, uint32(n * 6)
}

func appendTileVertex(dst []byte, x, y, u, v float32) []byte {
	return appendFloats(dst, x, y, 0, u, v)
}

func appendFloats(dst []byte, fs ...float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
