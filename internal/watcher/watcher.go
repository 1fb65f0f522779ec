// Package watcher reloads the configuration file when it changes on disk and
// hands the freshly parsed config to a callback. A reload that fails to parse
// keeps the previous configuration in place.
package watcher

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/thinkgate-dev/thinkgate/internal/config"
)

// Watcher watches a single config file.
type Watcher struct {
	configPath string
	onChange   func(*config.Config)
}

// New creates a watcher for the given config file path. onChange receives
// every successfully reloaded configuration.
func New(configPath string, onChange func(*config.Config)) *Watcher {
	return &Watcher{configPath: configPath, onChange: onChange}
}

// Start begins watching in a background goroutine until the context is
// cancelled. The parent directory is watched because editors commonly replace
// the file instead of writing it in place.
func (w *Watcher) Start(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.configPath)
	if err = fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return err
	}

	go func() {
		defer func() { _ = fsWatcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				w.reload()
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				log.Errorf("config watcher error: %v", err)
			}
		}
	}()

	log.Debugf("watching config file %s", w.configPath)
	return nil
}

func (w *Watcher) reload() {
	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.Errorf("config reload failed, keeping previous configuration: %v", err)
		return
	}
	w.onChange(cfg)
}
