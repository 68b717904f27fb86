package render

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//Kind splits failures into the two tiers the frame loop understands
type Kind int

const (
	//Fatal errors stop the renderer, no further GPU calls are made
	Fatal Kind = iota
	//Recoverable errors are handled inside the frame loop by recreating the swapchain
	Recoverable
)

func (k Kind) String() string {
	switch k {
	case Fatal:
		return "fatal"
	case Recoverable:
		return "recoverable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	ErrNoSuitableDevice      = errors.New("no physical device meets the minimum requirements")
	ErrMissingExtension      = errors.New("missing required extension")
	ErrMissingFeature        = errors.New("missing required device feature")
	ErrMissingLayer          = errors.New("requested validation layer is not available")
	ErrNoMemoryType          = errors.New("no suitable memory type")
	ErrNoDepthFormat         = errors.New("no supported depth format")
	ErrUnsupportedTransition = errors.New("unsupported layout transition")
	ErrUniformTooLarge       = errors.New("uniform payload exceeds the device limit")
	ErrMalformedShader       = errors.New("malformed shader binary")
	ErrOutOfDate             = errors.New("surface out of date")
	ErrStopped               = errors.New("renderer stopped after a fatal error")
)

//Error is the renderer error type. Result is vk.Success when the failure did not come from a Vulkan call.
type Error struct {
	Kind   Kind
	Op     string
	Result vk.Result
	Err    error
}

func (e *Error) Error() string {
	if e.Result != vk.Success {
		return fmt.Sprintf("%s: %s: %v (%d)", e.Kind, e.Op, e.Err, e.Result)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fatal(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return &Error{Kind: Fatal, Op: op, Err: err}
}

func recoverable(op string, err error) error {
	return &Error{Kind: Recoverable, Op: op, Err: err}
}

//IsFatal reports whether err should terminate the renderer. Untyped errors count as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind == Fatal
	}
	return true
}

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

//NewError converts a failed Vulkan result into a fatal Error annotated with the calling frame
func NewError(ret vk.Result) error {
	if !isError(ret) {
		return nil
	}
	op := "vulkan"
	if pc, file, line, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			op = fmt.Sprintf("%s (%s:%d)", filepath.Base(fn.Name()), filepath.Base(file), line)
		}
	}
	return &Error{Kind: Fatal, Op: op, Result: ret, Err: vk.Error(ret)}
}

//FatalExit runs the finalizers, records err in fatal_log.txt under dir and aborts the process
func FatalExit(dir string, err error, finalizers ...func()) {
	if err == nil {
		return
	}
	for _, fn := range finalizers {
		fn()
	}
	if ferr := writeFatalLog(dir, err); ferr != nil {
		log.Print(ferr)
	}
	log.Fatal(err)
}

func writeFatalLog(dir string, err error) error {
	file, ferr := os.OpenFile(filepath.Join(dir, "fatal_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if ferr != nil {
		return ferr
	}
	fatal_log := log.New(file, "FATAL: ", log.Ldate|log.Ltime|log.Lshortfile)
	fatal_log.Print(err)
	return file.Close()
}
