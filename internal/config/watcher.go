package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the configuration file when it changes on disk. Reloaded
// values become visible through Current(), which the relay engine reads on
// every dispatch; in-flight requests keep the snapshot they started with.
type Watcher struct {
	path   string
	onLoad func(*Config)
	stopCh chan struct{}
}

// Watch starts watching path. onLoad (optional) runs after every successful
// reload with the fresh config.
func Watch(path string, onLoad func(*Config)) (*Watcher, error) {
	w := &Watcher{path: path, onLoad: onLoad, stopCh: make(chan struct{})}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}
	// Watch the directory too so atomic writes (rename) are caught.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		log.WithError(err).WithField("dir", filepath.Dir(path)).Warn("failed to watch config directory")
	}

	log.WithField("path", path).Info("config watcher started")

	go w.loop(fw)
	return w, nil
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	defer fw.Close()

	var debounce *time.Timer
	const debounceDuration = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDuration, w.reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("config watcher error")
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg := LoadWithFile(w.path)
	if cfg == nil {
		log.WithField("path", w.path).Warn("config reload failed, keeping previous configuration")
		return
	}
	log.WithField("path", w.path).Info("configuration reloaded")
	if w.onLoad != nil {
		w.onLoad(cfg)
	}
}

// Stop terminates the watcher goroutine.
func (w *Watcher) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
}
