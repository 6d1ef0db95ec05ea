package logging

import (
	"io"

	"github.com/dmitrijs2005/synqlikk/internal/filex"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
	maxLogAgeDays = 28
)

// NewFile builds a text logger writing to a size-rotated file at path.
// The returned closer releases the file.
func NewFile(path, level string) (*SlogLogger, io.Closer, error) {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, nil, err
	}

	w := &lumberjack.Logger{
		Filename:   abs,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	}
	return New(w, "text", level), w, nil
}
