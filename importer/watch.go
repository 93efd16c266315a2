// ABOUTME: Watches a drop directory for new CSV and XLSX import files
// ABOUTME: Events are debounced per file so half-written files are not read
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// WatchSettle is how long a file must stay quiet before it is handed off.
var WatchSettle = 300 * time.Millisecond

// Importable reports whether path has an extension ReadFile understands.
func Importable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// WatchDir calls fn for each .csv or .xlsx file created or rewritten in dir
// until ctx is cancelled. fn runs on its own goroutine, one file at a time.
func WatchDir(ctx context.Context, dir string, log logrus.FieldLogger, fn func(path string)) error {
	if log == nil {
		log = logrus.StandardLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.WithField("dir", dir).Info("watching for import files")

	return watchEvents(ctx, watcher.Events, watcher.Errors, log, fn)
}

// watchEvents debounces events and hands settled paths to fn until ctx is
// cancelled or either channel closes.
func watchEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, log logrus.FieldLogger, fn func(path string)) error {
	ready := make(chan string, 16)
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	// stop ends the worker when the watch loop exits for any reason.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case path := <-ready:
				fn(path)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	defer wg.Wait()
	defer close(stop)

	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !Importable(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(WatchSettle, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				select {
				case ready <- path:
				case <-stop:
				case <-ctx.Done():
				}
			})
			mu.Unlock()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("import watcher error")
		}
	}
}
