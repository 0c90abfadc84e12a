package content

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last change before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads path whenever it changes and passes the new items to onChange.
// The containing directory is watched so editors that replace the file on save are seen.
// Parse failures are logged and the previous content stays in place. Watch blocks until ctx is done.
//
// Parameters:
//   - ctx: cancels the watch
//   - path: the content file
//   - debounce: quiet period before reloading; DefaultDebounce when <= 0
//   - onChange: called with each successfully reloaded list
//
// Returns:
//   - error: error if the watcher could not be created; nil after ctx is cancelled
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func([]Item)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("content: watch: %w", err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("content: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("content: watch %s: %w", filepath.Dir(abs), err)
	}
	log.Printf("[Content] watching %s", abs)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Content] watch error: %v", err)
		case <-timer.C:
			items, err := Load(abs)
			if err != nil {
				log.Printf("[Content] reload of %s failed, keeping previous content: %v", abs, err)
				continue
			}
			log.Printf("[Content] reloaded %d projects from %s", len(items), abs)
			onChange(items)
		}
	}
}
