//Command sprites renders a random tile map with a thousand monsters through Vulkan 1.3
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/andewx/dieselsprite/assets"
	"github.com/andewx/dieselsprite/display"
	"github.com/andewx/dieselsprite/render"
	"github.com/andewx/dieselsprite/sprites"
	"github.com/andewx/dieselsprite/vkdriver"
	"golang.org/x/term"
)

const (
	minFrameTime = 1.0 / 120.0
	maxFrameTime = 0.1
)

func main() {
	cfg, err := configure(flag.CommandLine, os.Args[1:])
	if err != nil {
		render.FatalExit(cfg.LogDir, err)
	}

	var echo io.Writer
	if term.IsTerminal(int(os.Stderr.Fd())) {
		echo = os.Stderr
	}
	logger, err := render.NewFileLogger(cfg.LogDir, echo)
	if err != nil {
		render.FatalExit(cfg.LogDir, err)
	}
	defer logger.Close()

	if err := run(cfg, logger); err != nil {
		logger.Errorf("%v", err)
		render.FatalExit(cfg.LogDir, err, func() { logger.Close() })
	}
}

//configure reads the config file named by -config, then applies every flag given explicitly
func configure(fs *flag.FlagSet, args []string) (render.Config, error) {
	def := render.DefaultConfig()
	path := fs.String("config", "", "JSON config file")
	title := fs.String("title", def.Title, "window title")
	width := fs.Int("width", def.Width, "window width")
	height := fs.Int("height", def.Height, "window height")
	validation := fs.Bool("validation", def.Validation, "enable the Khronos validation layer")
	limit := fs.Bool("limit-fps", def.LimitFPS, "cap the frame rate at 120")
	shaders := fs.String("shaders", def.ShaderDir, "directory of compiled SPIR-V shaders")
	textures := fs.String("textures", def.TextureDir, "texture directory")
	logs := fs.String("logs", def.LogDir, "log directory")
	count := fs.Int("sprites", def.SpriteCount, "number of monsters")
	if err := fs.Parse(args); err != nil {
		return def, err
	}

	cfg, err := render.LoadConfig(*path)
	if err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			cfg.Title = *title
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "validation":
			cfg.Validation = *validation
		case "limit-fps":
			cfg.LimitFPS = *limit
		case "shaders":
			cfg.ShaderDir = *shaders
		case "textures":
			cfg.TextureDir = *textures
		case "logs":
			cfg.LogDir = *logs
		case "sprites":
			cfg.SpriteCount = *count
		}
	})
	return cfg, cfg.Validate()
}

func run(cfg render.Config, logger *render.Logger) error {
	win, err := display.Open(cfg.Title, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer win.Close()

	drv, err := vkdriver.Open(win, vkdriver.Options{
		AppName:    cfg.Title,
		Validation: cfg.Validation,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	ctx, err := render.NewContext(drv)
	if err != nil {
		drv.Destroy()
		return err
	}
	defer ctx.Teardown()

	scene, err := sprites.NewScene(cfg.SpriteCount, time.Now().UnixNano())
	if err != nil {
		return err
	}
	loaded, err := assets.Load(context.Background(), cfg.ShaderDir, cfg.TextureDir)
	if err != nil {
		return err
	}
	renderer, err := render.New(ctx, win, scene, loaded, logger)
	if err != nil {
		return err
	}
	defer renderer.Close()

	info := ctx.Info()
	logger.Infof("rendering %d monsters on %s", cfg.SpriteCount, info.Name)
	win.Show()
	return loop(win, renderer, scene, cfg.LimitFPS, logger)
}

func loop(win *display.Display, renderer *render.Renderer, scene *sprites.Scene, limit bool, logger *render.Logger) error {
	last := win.Time()
	fps := sprites.NewFPSCounter(last)
	for {
		ev := win.Poll()
		if ev.Quit {
			logger.Infof("quitting, %+v", renderer.Stats())
			return nil
		}
		if ev.Resized {
			renderer.NotifyResize()
		}

		t := win.Time()
		dt := frameDelta(t-last, limit, func(d time.Duration) {
			time.Sleep(d)
			t = win.Time()
		}, func() float64 { return t - last })

		scene.Step(float32(dt))
		if err := renderer.DrawFrame(float32(t)); err != nil {
			if render.IsFatal(err) {
				return err
			}
			logger.Warnf("frame skipped: %v", err)
		}
		if line, ok := fps.Frame(t); ok {
			logger.Infof("%s", line)
		}
		last = t
	}
}

//frameDelta applies the optional frame limiter, sleeping at least a millisecond when the frame
//came in early, otherwise it clamps long frames to maxFrameTime
func frameDelta(dt float64, limit bool, sleep func(time.Duration), elapsed func() float64) float64 {
	if limit && dt < minFrameTime {
		wait := time.Duration((minFrameTime - dt) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		sleep(wait)
		return elapsed()
	}
	if dt > maxFrameTime {
		return maxFrameTime
	}
	return dt
}
