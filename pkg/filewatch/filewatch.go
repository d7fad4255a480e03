// Package filewatch reports content changes of a single file.
package filewatch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the delay after an fsnotify event before checking the checksum.
const DebounceInterval = 100 * time.Millisecond

type Watcher struct {
	path     string
	debounce time.Duration

	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New hashes the current content of path; later notifications fire only
// when the content differs from the last seen hash.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w := &Watcher{path: abs, debounce: DebounceInterval}
	for _, opt := range opts {
		opt(w)
	}
	w.lastHash, err = HashFile(abs)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Run sends on changed each time the file content changes, until ctx is done.
// Sends never block; a pending notification absorbs later ones.
func (w *Watcher) Run(ctx context.Context, changed chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Editors and atomic writers replace the file, so watch the directory.
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}
	slog.DebugContext(ctx, "watching file", "dir", dir, "file", name)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				if w.refresh(ctx) {
					select {
					case changed <- struct{}{}:
					default:
					}
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) bool {
	newHash, err := HashFile(w.path)
	if err != nil {
		slog.DebugContext(ctx, "failed to hash file after event", "error", err)
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if newHash == w.lastHash {
		return false
	}
	w.lastHash = newHash
	return true
}

func HashFile(path string) ([sha256.Size]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("hash %s: %w", path, err)
	}

	var result [sha256.Size]byte
	copy(result[:], h.Sum(nil))
	return result, nil
}
