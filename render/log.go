package render

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

//Logger splits renderer output into info, warning and error streams
type Logger struct {
	info_log  *log.Logger
	warn_log  *log.Logger
	error_log *log.Logger
	files     []*os.File
}

//NewLogger writes every level to w
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		info_log:  log.New(w, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile),
		warn_log:  log.New(w, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile),
		error_log: log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

//NewFileLogger appends to info_log.txt, warn_log.txt and error_log.txt in dir.
//When echo is non nil every entry is mirrored there as well.
func NewFileLogger(dir string, echo io.Writer) (*Logger, error) {
	var core Logger
	open := func(name string) (io.Writer, error) {
		file, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			core.Close()
			return nil, fatal("open log", err)
		}
		core.files = append(core.files, file)
		if echo != nil {
			return io.MultiWriter(file, echo), nil
		}
		return file, nil
	}

	info_file, err := open("info_log.txt")
	if err != nil {
		return nil, err
	}
	warn_file, err := open("warn_log.txt")
	if err != nil {
		return nil, err
	}
	error_file, err := open("error_log.txt")
	if err != nil {
		return nil, err
	}

	core.info_log = log.New(info_file, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	core.warn_log = log.New(warn_file, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
	core.error_log = log.New(error_file, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	return &core, nil
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.info_log.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.warn_log.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.error_log.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}

//Discard drops everything, used when a component is built without a logger
var Discard = NewLogger(io.Discard)
