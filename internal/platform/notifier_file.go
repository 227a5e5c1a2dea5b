package platform

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// FileNotifier pings subscribers when any of the watched files is written,
// created, renamed or removed. Parent directories are watched so atomic
// replacements are seen.
type FileNotifier struct {
	paths []string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewFileNotifier watches the given settings files.
func NewFileNotifier(paths ...string) *FileNotifier {
	return &FileNotifier{paths: paths}
}

// Subscribe starts watching. Only one subscription is supported at a time;
// it ends when ctx is cancelled or Close is called.
func (n *FileNotifier) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.watcher != nil {
		return nil, errors.New("notifier already subscribed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}

	names := make(map[string]struct{}, len(n.paths))
	dirs := make(map[string]struct{})
	for _, p := range n.paths {
		names[filepath.Clean(p)] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	added := 0
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			log.Warnf("platform: cannot watch %s: %v", dir, err)
			continue
		}
		added++
	}
	if added == 0 {
		watcher.Close()
		return nil, errors.Errorf("none of %v can be watched", n.paths)
	}
	n.watcher = watcher

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer n.release(watcher)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if _, ours := names[filepath.Clean(event.Name)]; !ours {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("platform: settings watch error: %v", err)
			}
		}
	}()
	return out, nil
}

func (n *FileNotifier) release(w *fsnotify.Watcher) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.watcher == w {
		_ = w.Close()
		n.watcher = nil
	}
}

// Close ends the current subscription. It is safe to call more than once,
// and Subscribe may be called again afterwards.
func (n *FileNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.watcher == nil {
		return nil
	}
	err := n.watcher.Close()
	n.watcher = nil
	return err
}
