package sprites

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//FPSCounter reports frame rate and mean frame time once per second
type FPSCounter struct {
	printer *message.Printer
	since   float64
	frames  int
}

func NewFPSCounter(start float64) *FPSCounter {
	return &FPSCounter{
		printer: message.NewPrinter(language.English),
		since:   start,
	}
}

//Frame counts one frame at time t. Once a second has passed it returns the report and starts over.
func (f *FPSCounter) Frame(t float64) (string, bool) {
	f.frames++
	elapsed := t - f.since
	if elapsed < 1 {
		return "", false
	}
	fps := int(float64(f.frames) / elapsed)
	ms := elapsed / float64(f.frames) * 1000
	line := f.printer.Sprintf("FPS: %d, frame time: %.3f ms", fps, ms)
	f.frames = 0
	f.since = t
	return line, true
}
