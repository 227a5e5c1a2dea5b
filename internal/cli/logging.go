package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// newLogger routes logs to path. Headless runs also log to stderr; the
// TUI owns the terminal so it only gets the file.
func newLogger(path string, level logrus.Level, alsoStderr bool) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if alsoStderr {
		logger.SetOutput(io.MultiWriter(f, os.Stderr))
	} else {
		logger.SetOutput(f)
	}

	// package-level loggers in platform use the standard logger
	std := logrus.StandardLogger()
	std.SetOutput(logger.Out)
	std.SetLevel(level)
	std.SetFormatter(logger.Formatter)
	return logger, f, nil
}
