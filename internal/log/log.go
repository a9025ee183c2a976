// Package log provides the repository-wide structured logger.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Base is the root logger all component loggers derive from.
var Base = logrus.New()

func init() {
	Base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Base.SetOutput(os.Stdout)
}

// Config controls the global logger before any component logger is derived.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// Init applies Config to the base logger. Call once at process startup.
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	Base.SetLevel(level)

	if cfg.Output != nil {
		Base.SetOutput(cfg.Output)
	}
	if cfg.JSON {
		Base.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// For returns a child logger tagged with the given component name, the way
// every subsystem in this repo identifies itself in log lines.
func For(component string) *logrus.Entry {
	return Base.WithField("component", component)
}
