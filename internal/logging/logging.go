// Package logging builds the process-wide slog logger.
//
// Interactive runs get colored output from tint on stderr. With a log file
// configured, records are written to a rotating file, optionally teed to
// stdout.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Params struct {
	Level      string
	File       string
	JSON       bool
	AlsoStdout bool
}

// Setup builds a logger from p and installs it as the slog default. The
// returned closer releases the log file, if any.
func Setup(p Params) (*slog.Logger, io.Closer) {
	log, closer := New(p, os.Stderr)
	slog.SetDefault(log)
	return log, closer
}

// New builds a logger from p. Without a log file, records go to console.
func New(p Params, console io.Writer) (*slog.Logger, io.Closer) {
	level := ParseLevel(p.Level)

	if p.File == "" {
		if p.JSON {
			return slog.New(slog.NewJSONHandler(console, &slog.HandlerOptions{Level: level})), nopCloser{}
		}
		return slog.New(tint.NewHandler(console, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})), nopCloser{}
	}

	filename := p.File
	if !strings.HasSuffix(filename, ".log") {
		filename += ".log"
	}
	rotating := &lumberjack.Logger{
		Filename: filename,
		MaxSize:  50, // megabytes
		Compress: true,
	}

	var out io.Writer = rotating
	if p.AlsoStdout {
		out = NewCombinedWriter(os.Stdout, rotating)
	}

	opts := &slog.HandlerOptions{Level: level}
	if p.JSON {
		return slog.New(slog.NewJSONHandler(out, opts)), rotating
	}
	return slog.New(slog.NewTextHandler(out, opts)), rotating
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
