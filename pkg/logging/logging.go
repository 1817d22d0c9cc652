package logging

import (
	"io"
	"log"
	"os"

	"github.com/itohio/hktelem/pkg/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the standard logger. When cfg.File is set, output is also
// written to a size-rotated log file. The returned closer flushes that file.
func Setup(cfg config.LogConfig) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
