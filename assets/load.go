package assets

import (
	"context"

	"github.com/andewx/dieselsprite/render"
)

//Load reads the three shader pairs and every texture the renderer needs
func Load(ctx context.Context, shaderDir, textureDir string) (render.Assets, error) {
	var a render.Assets
	var err error
	if a.Tiles, err = render.LoadShaderPair(shaderDir, "tiles"); err != nil {
		return a, err
	}
	if a.Sprite, err = render.LoadShaderPair(shaderDir, "sprite"); err != nil {
		return a, err
	}
	if a.Screen, err = render.LoadShaderPair(shaderDir, "screen"); err != nil {
		return a, err
	}
	a.Textures, err = LoadTextures(ctx, TexturePaths(textureDir))
	return a, err
}
