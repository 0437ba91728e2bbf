// Package logging points the standard logger at the console and, when
// configured, a size-rotated log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/asv-radar-sim/pkg/config"
)

// Setup configures the standard log package for a tool. Output always goes
// to console; if cfg.File is set it is also appended to that file, which is
// rotated by size. The returned closer flushes and closes the file.
func Setup(tool string, cfg config.LoggingConfig, console io.Writer) (io.Closer, error) {
	if console == nil {
		console = os.Stderr
	}
	log.SetPrefix("")
	log.SetFlags(log.LstdFlags)

	if cfg.File == "" {
		log.SetOutput(console)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	log.SetOutput(io.MultiWriter(console, w))

	// Start the file with enough to tell runs apart.
	fmt.Fprintf(w, "---- %s start (%s/%s, %s) ----\n", tool, runtime.GOOS, runtime.GOARCH, buildVersion())
	return w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func buildVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "devel"
}
