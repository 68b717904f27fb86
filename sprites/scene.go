package sprites

import (
	"math/rand"

	"github.com/andewx/dieselsprite/render"
	"github.com/pkg/errors"
	lin "github.com/xlab/linmath"
)

//tiles sit at depth 10 so monsters land on both sides of them
const tileDepth = 10

//Scene holds the tile map and the monsters, it implements render.Scene
type Scene struct {
	tiles    *Tilemap
	monsters []Monster
	vp       lin.Mat4x4
}

var _ render.Scene = (*Scene)(nil)

//NewScene builds a random scene with count monsters
func NewScene(count int, seed int64) (*Scene, error) {
	if count < 0 || count > render.MaxSprites {
		return nil, errors.Errorf("sprite count %d outside 0..%d", count, render.MaxSprites)
	}
	rng := rand.New(rand.NewSource(seed))
	s := &Scene{
		tiles:    NewTilemap(rng),
		monsters: make([]Monster, count),
	}
	for i := range s.monsters {
		s.monsters[i] = newMonster(rng, i)
	}

	//no camera, the view is identity
	var proj, view lin.Mat4x4
	gridProjection(&proj)
	view.Identity()
	s.vp.Mult(&proj, &view)
	return s, nil
}

func (s *Scene) Tiles() *Tilemap {
	return s.tiles
}

func (s *Scene) Monsters() []Monster {
	return s.monsters
}

func (s *Scene) TileMesh() (vertices, indices []byte, indexCount uint32) {
	return s.tiles.Mesh()
}

func (s *Scene) SpriteVertices() ([]byte, uint32) {
	return spriteVertices(s.monsters), uint32(len(s.monsters) * 6)
}

//TileConstants draws the map in full white from texture 0
func (s *Scene) TileConstants() render.PushConstants {
	var model, mvp lin.Mat4x4
	model.Identity()
	model.TranslateInPlace(0, 0, tileDepth)
	mvp.Mult(&s.vp, &model)
	return render.PushConstants{
		MVP:          toMat4(&mvp),
		Color:        [4]float32{1, 1, 1, 1},
		TextureIndex: 0,
	}
}

//Step advances every monster by dt seconds
func (s *Scene) Step(dt float32) {
	for i := range s.monsters {
		s.monsters[i].Step(dt)
	}
}

//Update writes the time and one mvp per monster
func (s *Scene) Update(u *render.UniformPayload, t float32) {
	u.Time = t
	var mvp lin.Mat4x4
	for i := range s.monsters {
		model := s.monsters[i].Model(i, t)
		mvp.Mult(&s.vp, &model)
		u.MVPs[i] = toMat4(&mvp)
	}
}
