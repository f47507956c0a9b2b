package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Op is what happened to a watched asset.
type Op int

// Watch operations.
const (
	OpChanged Op = iota + 1
	OpRemoved
)

func (o Op) String() string {
	switch o {
	case OpChanged:
		return "changed"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event reports an asset whose cached decode was dropped.
type Event struct {
	Name string
	Path string
	Kind Kind
	Op   Op
}

// Watch monitors every root recursively, invalidating cached decodes as files
// change and sending one Event per affected asset to events. Bursts of changes
// are coalesced until no new change arrives for debounce; a debounce of zero
// reports each change immediately. Watch blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration, events chan<- Event) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	for _, root := range m.Roots() {
		if err := watchRecursive(w, root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}

	pending := make(map[string]Event)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() bool {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			select {
			case events <- pending[p]:
				delete(pending, p)
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			ev, ok := m.handleFSEvent(w, e)
			if !ok {
				continue
			}
			pending[ev.Path] = ev

			if debounce <= 0 {
				if !flush() {
					return nil
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if !flush() {
				return nil
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("watch error", zap.Error(err))
		}
	}
}

// handleFSEvent invalidates the cache for a raw notification and converts it
// into an asset event. New directories are added to the watch list.
func (m *Manager) handleFSEvent(w *fsnotify.Watcher, e fsnotify.Event) (Event, bool) {
	var op Op
	switch {
	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpRemoved
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		op = OpChanged
	default:
		return Event{}, false
	}

	if op == OpChanged {
		if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
			if e.Op.Has(fsnotify.Create) {
				if err := watchRecursive(w, e.Name); err != nil {
					m.log.Warn("failed to watch new directory", zap.String("dir", e.Name), zap.Error(err))
				}
			}
			return Event{}, false
		}
	}

	m.Invalidate(e.Name)

	var kind Kind
	if op == OpRemoved {
		kind = kindFromExt(e.Name)
	} else {
		kind = Classify(e.Name)
	}
	if kind == KindUnknown || strings.HasPrefix(filepath.Base(e.Name), ".") {
		return Event{}, false
	}

	ev := Event{Name: m.nameFor(e.Name), Path: e.Name, Kind: kind, Op: op}
	m.log.Debug("asset "+op.String(), zap.String("name", ev.Name), zap.Stringer("kind", kind))
	return ev, true
}

// watchRecursive adds dir and every non-hidden directory below it.
func watchRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
