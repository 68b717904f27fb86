package sprites

import lin "github.com/xlab/linmath"

//gridProjection is an orthographic projection over the tile grid, one unit per tile, with row 0
//at the bottom of the screen.
//
//linmath builds projections for GL clip space, depth is remapped from [-1, 1] to the [0, 1] range
//Vulkan clips against. Y needs no flip since bottom and top are already swapped.
func gridProjection(m *lin.Mat4x4) {
	var ortho, fix lin.Mat4x4
	ortho.Ortho(0, GridWidth, GridHeight, 0, 22, -22)
	fix.Translate(0.0, 0.0, 0.5)
	fix.ScaleAniso(&fix, 1.0, 1.0, 0.5)
	m.Mult(&fix, &ortho)
}
