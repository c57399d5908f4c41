// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-recognizer/internal/config"
)

var logFile *os.File

// Init initializes the global logger based on the provided configuration.
// stderr is always used so command output on stdout stays clean; cfg.File is
// added when it can be opened.
func Init(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info': %v", cfg.Level, err)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	writers := []io.Writer{os.Stderr}
	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if err := os.MkdirAll(logDir, 0750); err != nil {
			log.Errorf("Failed to create log directory '%s': %v", logDir, err)
		} else if f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660); err != nil { //nolint:gosec // operator-supplied path
			log.Errorf("Failed to open log file '%s': %v", cfg.File, err)
		} else {
			Close()
			logFile = f
			writers = append(writers, f)
		}
	}
	log.SetOutput(io.MultiWriter(writers...))
	log.Debugf("Logger initialized (level %s)", level)
}

// Close releases the log file opened by Init, if any.
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
