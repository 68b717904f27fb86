package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigureFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprites.json")
	if err := os.WriteFile(path, []byte(`{"title":"from file","width":800,"sprite_count":50}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := flag.NewFlagSet("sprites", flag.ContinueOnError)
	cfg, err := configure(fs, []string{"-config", path, "-sprites", "200", "-limit-fps"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Title != "from file" || cfg.Width != 800 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.SpriteCount != 200 || !cfg.LimitFPS {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Height != 768 {
		t.Errorf("default height %d", cfg.Height)
	}
}

func TestConfigureRejectsTooManySprites(t *testing.T) {
	fs := flag.NewFlagSet("sprites", flag.ContinueOnError)
	if _, err := configure(fs, []string{"-sprites", "5000"}); err == nil {
		t.Error("5000 sprites accepted")
	}
}

func TestFrameDelta(t *testing.T) {
	noSleep := func(time.Duration) { t.Fatal("slept without a limiter") }
	if dt := frameDelta(0.5, false, noSleep, nil); dt != maxFrameTime {
		t.Errorf("long frame gave %v", dt)
	}
	if dt := frameDelta(0.01, false, noSleep, nil); dt != 0.01 {
		t.Errorf("normal frame gave %v", dt)
	}

	var slept time.Duration
	dt := frameDelta(minFrameTime-0.0001, true, func(d time.Duration) { slept = d }, func() float64 { return minFrameTime })
	if slept != time.Millisecond || dt != minFrameTime {
		t.Errorf("slept %v, dt %v", slept, dt)
	}
	frameDelta(0.002, true, func(d time.Duration) { slept = d }, func() float64 { return minFrameTime })
	if slept < 6*time.Millisecond || slept > 7*time.Millisecond {
		t.Errorf("slept %v for an early frame", slept)
	}
}
