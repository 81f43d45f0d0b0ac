// SPDX-License-Identifier: Apache-2.0

// Package watch regenerates reports when the evidence on disk changes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Operation string

const (
	Created  Operation = "created"
	Modified Operation = "modified"
	Removed  Operation = "removed"
	Renamed  Operation = "renamed"
)

// Event is a change to a watched evidence path.
type Event struct {
	Path      string
	Operation Operation
}

// Watcher follows an evidence manifest or an evidence directory.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	// file is set when a single manifest is watched through its directory.
	file   string
	ignore []string
}

// New creates a watcher. Paths under any of ignore (typically the report
// output directory) never produce events.
func New(logger *slog.Logger, ignore ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{fsw: fsw, logger: logger}
	for _, p := range ignore {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	return w, nil
}

// AddSource starts watching an evidence source. A manifest file is watched
// through its directory so editors that replace the file are seen. A
// directory is watched together with its category subdirectories.
func (w *Watcher) AddSource(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		w.file = abs
		return w.fsw.Add(filepath.Dir(abs))
	}
	if err := w.fsw.Add(abs); err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() && !hidden(e.Name()) {
			if err := w.fsw.Add(filepath.Join(abs, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// Events emits relevant changes until ctx is done.
func (w *Watcher) Events(ctx context.Context) <-chan Event {
	events := make(chan Event, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !w.relevant(ev.Name) {
					continue
				}

				var op Operation
				switch {
				case ev.Op.Has(fsnotify.Create):
					op = Created
					w.followDir(ev.Name)
				case ev.Op.Has(fsnotify.Write):
					op = Modified
				case ev.Op.Has(fsnotify.Remove):
					op = Removed
				case ev.Op.Has(fsnotify.Rename):
					op = Renamed
				default:
					continue
				}

				select {
				case events <- Event{Path: ev.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "error", err)
			}
		}
	}()

	return events
}

// Run calls regenerate once changes have been quiet for debounce, until ctx
// is done. A failing regeneration is logged and watching goes on.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, regenerate func(ctx context.Context, changed []Event) error) error {
	events := w.Events(ctx)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	var pending []Event
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			pending = append(pending, ev)
			timer.Reset(debounce)
		case <-timer.C:
			changed := pending
			pending = nil
			w.logger.Info("evidence changed", "events", len(changed))
			if err := regenerate(ctx, changed); err != nil {
				w.logger.Error("regenerate report", "error", err)
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(path string) bool {
	if w.file != "" {
		return path == w.file
	}
	if hidden(filepath.Base(path)) {
		return false
	}
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return false
		}
	}
	return true
}

// followDir watches a newly created category directory.
func (w *Watcher) followDir(path string) {
	if w.file != "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("watch new category", "path", path, "error", err)
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
