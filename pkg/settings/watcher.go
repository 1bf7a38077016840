package settings

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/OptimiLabs/velocity-sub007/config"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches the directory containing velocity.yml and reloads the
// settings when it changes. Editors write config files with rapid
// rename/chmod bursts, so changes are debounced.
type Watcher struct {
	watcher    *fsnotify.Watcher
	settings   *FileSettings
	configDir  string
	debounce   time.Duration
	mu         sync.Mutex
	lastChange time.Time
	logger     *logrus.Entry
	onReload   func(*config.Config)
	done       chan struct{}
}

// NewWatcher creates a watcher over the directory holding the given config
// file. The onReload callback (optional) fires after each successful reload.
func NewWatcher(settings *FileSettings, configPath string, logger *logrus.Entry, onReload func(*config.Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:   fsw,
		settings:  settings,
		configDir: filepath.Dir(configPath),
		debounce:  500 * time.Millisecond,
		logger:    logger,
		onReload:  onReload,
		done:      make(chan struct{}),
	}

	if err := fsw.Add(w.configDir); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigEvent(event) {
				continue
			}
			w.mu.Lock()
			now := time.Now()
			if now.Sub(w.lastChange) < w.debounce {
				w.mu.Unlock()
				continue
			}
			w.lastChange = now
			w.mu.Unlock()

			// Small grace period so the writer finishes before we read.
			time.Sleep(100 * time.Millisecond)
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Settings watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) isConfigEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if !strings.HasPrefix(name, "velocity.") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) reload() {
	cfg, err := config.LoadFrom(w.configDir)
	if err != nil {
		w.logger.WithError(err).Warn("Failed to reload settings, keeping previous configuration")
		return
	}

	w.settings.Replace(cfg)
	w.logger.Info("Settings reloaded")
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
