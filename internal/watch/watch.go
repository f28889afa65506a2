// Package watch recompiles jobs when their input files change.
package watch

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Files maps an input file to the keys (job names) that read it.
type Files map[string][]string

// Add records that key reads path.
func (f Files) Add(path, key string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	for _, k := range f[abs] {
		if k == key {
			return
		}
	}
	f[abs] = append(f[abs], key)
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

// Start watches the directories holding files and calls onChange with the
// sorted, deduplicated keys of every file touched within one debounce window.
// Directories are watched instead of files so editors that replace a file by
// rename keep triggering. onChange runs on the watcher goroutine; calls never
// overlap.
func Start(files Files, debounce time.Duration, logger *log.Logger, onChange func(keys []string)) (io.Closer, error) {
	if len(files) == 0 {
		return nil, errors.New("watch: no files to watch")
	}
	if onChange == nil {
		return nil, errors.New("watch: nil change handler")
	}
	if debounce <= 0 {
		return nil, errors.New("watch: debounce must be > 0")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := map[string]bool{}
	for path := range files {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer   *time.Timer
			timerC  <-chan time.Time
			pending = map[string]bool{}
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}
		fire := func() {
			keys := make([]string, 0, len(pending))
			for k := range pending {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pending = map[string]bool{}
			onChange(keys)
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				if len(pending) > 0 {
					fire()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Printf("watch error: %v", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				keys, hit := triggered(evt, files)
				if !hit {
					continue
				}
				for _, k := range keys {
					pending[k] = true
				}
				resetTimer()
			}
		}
	}()

	logger.Printf("watch enabled: files=%d dirs=%d debounce_ms=%d", len(files), len(dirs), debounce.Milliseconds())
	var once sync.Once
	return closerFunc(func() error {
		once.Do(func() {
			close(stopCh)
			_ = watcher.Close()
			<-doneCh
		})
		return nil
	}), nil
}

// triggered reports the keys an event concerns. Events on untracked files,
// dotfiles and pure chmods are ignored.
func triggered(evt fsnotify.Event, files Files) ([]string, bool) {
	if strings.TrimSpace(evt.Name) == "" {
		return nil, false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return nil, false
	}
	if strings.HasPrefix(filepath.Base(evt.Name), ".") {
		return nil, false
	}
	name, err := filepath.Abs(evt.Name)
	if err != nil {
		name = filepath.Clean(evt.Name)
	}
	keys, ok := files[name]
	return keys, ok && len(keys) > 0
}
