package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotate configures file output with size based rotation.
type Rotate struct {
	// Filename is the log file path.
	Filename string
	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int
	// MaxAge is the number of days to retain old files.
	MaxAge int
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int
	// Compress rotated files with gzip.
	Compress bool
}

// DefaultRotate returns the rotation settings used by the CLI.
func DefaultRotate(filename string) *Rotate {
	return &Rotate{
		Filename:   filename,
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 3,
	}
}

func newRotateWriter(r *Rotate) io.Writer {
	return &lumberjack.Logger{
		Filename:   r.Filename,
		MaxSize:    r.MaxSize,
		MaxAge:     r.MaxAge,
		MaxBackups: r.MaxBackups,
		LocalTime:  true,
		Compress:   r.Compress,
	}
}
