package render

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

//Config holds the renderer and application settings. It corresponds to a JSON object and every
//field missing from the file keeps its default.
type Config struct {
	Title       string `json:"title"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Validation  bool   `json:"validation"`
	LimitFPS    bool   `json:"limit_fps"`
	ShaderDir   string `json:"shader_dir"`
	TextureDir  string `json:"texture_dir"`
	LogDir      string `json:"log_dir"`
	SpriteCount int    `json:"sprite_count"`
}

func DefaultConfig() Config {
	return Config{
		Title:       "Vulkan",
		Width:       int(OffscreenWidth),
		Height:      int(OffscreenHeight),
		ShaderDir:   "shaders",
		TextureDir:  "textures",
		LogDir:      ".",
		SpriteCount: MaxSprites,
	}
}

//LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid window size %dx%d", c.Width, c.Height)
	}
	if c.SpriteCount < 0 || c.SpriteCount > MaxSprites {
		return errors.Errorf("sprite_count %d outside 0..%d", c.SpriteCount, MaxSprites)
	}
	return nil
}
