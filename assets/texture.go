//Package assets decodes the textures and loads the shader blobs the renderer is built from
package assets

import (
	"bytes"
	"context"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/andewx/dieselsprite/render"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

//DecodeTexture decodes a png, bmp or webp image into tightly packed RGBA rows
func DecodeTexture(name string, data []byte) (render.Texture, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return render.Texture{}, errors.Wrapf(err, "decode %s", name)
	}
	b := src.Bounds()
	if b.Empty() {
		return render.Texture{}, errors.Errorf("decode %s: empty %s image", name, format)
	}
	rgba := toRGBA(src)
	return render.Texture{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: rgba.Pix,
	}, nil
}

//toRGBA returns src as an RGBA image anchored at the origin with no row padding
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if img, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) && img.Stride == 4*b.Dx() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

//LoadTexture reads and decodes one texture file, named after its base name without extension
func LoadTexture(path string) (render.Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return render.Texture{}, errors.Wrap(err, "read texture")
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return DecodeTexture(name, data)
}

//LoadTextures decodes every file in parallel. The result keeps the order of paths, which is the
//texture index order the shaders sample by.
func LoadTextures(ctx context.Context, paths []string) ([]render.Texture, error) {
	textures := make([]render.Texture, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tex, err := LoadTexture(path)
			if err != nil {
				return err
			}
			textures[i] = tex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return textures, nil
}

//TexturePaths lists the tile set followed by the four monster sheets
func TexturePaths(dir string) []string {
	names := []string{"tiles.png", "monsters1.png", "monsters2.png", "monsters3.png", "monsters4.png"}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths
}
