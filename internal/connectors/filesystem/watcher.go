package filesystem

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// DefaultDebounce is the quiet period before a batch of changes is emitted.
const DefaultDebounce = 2 * time.Second

// ChangeSet is a batch of entry names that changed within one debounce window.
type ChangeSet struct {
	Names []string
}

// Watch reports changes to the direct entries of dir. Events are coalesced
// until no new event arrives for debounce. The returned channel is closed
// when ctx is cancelled or the underlying watcher fails.
func Watch(ctx context.Context, dir string, debounce time.Duration) (<-chan ChangeSet, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: watch %s: %w", domain.ErrNotFound, dir, err)
	}

	out := make(chan ChangeSet)
	go runWatch(ctx, w, debounce, out)
	return out, nil
}

func runWatch(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, out chan<- ChangeSet) {
	defer close(out)
	defer w.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			name, relevant := handleFsEvent(event)
			if !relevant {
				continue
			}
			logger.Debug("watch: %s %s", event.Op, name)
			pending[name] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)

			select {
			case out <- ChangeSet{Names: names}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleFsEvent returns the entry name and whether the event should
// trigger a re-import.
func handleFsEvent(event fsnotify.Event) (string, bool) {
	name := filepath.Base(event.Name)
	if isHidden(name) || strings.HasSuffix(name, "~") {
		return name, false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return name, false
	}
	return name, true
}

// isHidden reports dotfiles, which editors use for swap and lock files.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
