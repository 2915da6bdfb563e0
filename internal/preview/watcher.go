package preview

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chantworks/cantilena/internal/logging"
)

// watchDebounce is how long to wait for more changes before re-rendering.
const watchDebounce = 200 * time.Millisecond

// watchInputs watches the chant input files and calls reload after each
// debounced burst of changes. The parent directories are watched rather
// than the files themselves, so editors that replace files on save keep
// triggering events.
func watchInputs(paths []string, reload func()) (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go func() {
		ticker := time.NewTicker(watchDebounce)
		defer ticker.Stop()
		pending := false

		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				abs, err := filepath.Abs(event.Name)
				if err != nil || !watched[abs] {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				logging.WatcherEvent(event.Op.String(), event.Name)
				pending = true

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logging.Error("watcher error", "error", err)

			case <-ticker.C:
				if pending {
					pending = false
					reload()
				}
			}
		}
	}()

	return fsw, nil
}
