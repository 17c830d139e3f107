package config

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

var (
	gLock   sync.RWMutex
	gConfig *Config
)

func configFromFile(path string) (*Config, error) {
	config := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p := json.NewDecoder(f)
	if err := p.Decode(config); err != nil {
		return nil, err
	}
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}

func Get() *Config {
	gLock.RLock()
	defer gLock.RUnlock()
	return gConfig
}

func waitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-watcher.Events:
	}
	// Editors often emit a burst of events for a single save.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second / 10):
	}
	return ctx.Err()
}

// Load reads the config file and starts watching it for changes. Only the log
// level is applied on reload; capture and transport settings are fixed at
// startup because the pipeline is built around them.
func Load(ctx context.Context, path string) error {
	config, err := configFromFile(path)
	if err != nil {
		return err
	}
	gConfig = config
	applyLogLevel(config)
	go func() {
		for ctx.Err() == nil {
			if err := waitForChange(ctx, path); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Errorf("Error waiting for file change: %v", err)
				continue
			}

			config, err := configFromFile(path)
			if err != nil {
				log.Errorf("Failed to load new config: %v", err)
				continue
			}
			gLock.Lock()
			prev := gConfig
			gConfig = config
			gLock.Unlock()

			applyLogLevel(config)
			if prev != nil && (prev.Monitor != config.Monitor ||
				prev.Transport != config.Transport ||
				prev.Backend != config.Backend ||
				prev.ColorFormat != config.ColorFormat) {
				log.Warn("Capture and transport settings changed on disk; restart to apply")
			}
		}
	}()
	return nil
}

// LoadStatic installs a config without file watching, for use when no config
// file is given.
func LoadStatic(config *Config) error {
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return err
	}
	gLock.Lock()
	gConfig = config
	gLock.Unlock()
	applyLogLevel(config)
	return nil
}

func applyLogLevel(config *Config) {
	if config.LogLevel == "" {
		return
	}
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		log.Errorf("Invalid log level %q: %v", config.LogLevel, err)
		return
	}
	log.SetLevel(level)
}
