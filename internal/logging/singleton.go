package logging

import (
	"os"
	"sync"
)

var (
	instance *Logger
	mu       sync.RWMutex
)

// Configure sets the logging configuration and replaces any logger built
// from a previous configuration.
func Configure(config *Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		instance.Close()
	}
	instance = logger
	return nil
}

// SetLogger installs an already constructed logger, mainly for tests.
func SetLogger(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	instance = l
}

// GetLogger returns the process logger. Before Configure is called it
// returns an info-level stdout logger.
func GetLogger() *Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = New(os.Stdout, LevelInfo, false, nil)
	}
	return instance
}
