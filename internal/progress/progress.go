// SPDX-License-Identifier: Apache-2.0

// Package progress reports the advance of a report run and carries its
// cancellation.
package progress

import (
	"context"
	"log/slog"
	"sync"

	"github.com/witnessreport/witness-report/internal/report"
)

// Snapshot is the state of a Tracker at one point in time.
type Snapshot struct {
	Maximum int           `json:"maximum"`
	Done    int           `json:"done"`
	Label   string        `json:"label"`
	Status  report.Status `json:"status,omitempty"`
}

// Tracker implements report.Progress. It logs every label change and is
// cancelled with its context or by Cancel.
type Tracker struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu       sync.Mutex
	state    Snapshot
	onUpdate func(Snapshot)
}

var _ report.Progress = (*Tracker)(nil)

// New returns a Tracker bound to ctx.
func New(ctx context.Context, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Tracker{ctx: ctx, cancel: cancel, logger: logger}
}

// OnUpdate registers fn to be called with a snapshot after every change.
// fn runs with no lock held.
func (t *Tracker) OnUpdate(fn func(Snapshot)) {
	t.mu.Lock()
	t.onUpdate = fn
	t.mu.Unlock()
}

// Context is cancelled together with the tracker.
func (t *Tracker) Context() context.Context { return t.ctx }

// Cancel asks the run to stop at the next record boundary.
func (t *Tracker) Cancel() { t.cancel() }

func (t *Tracker) SetMaximum(n int) {
	t.update(func(s *Snapshot) {
		s.Maximum = n
		s.Done = 0
	})
}

func (t *Tracker) Increment() {
	t.update(func(s *Snapshot) { s.Done++ })
}

func (t *Tracker) UpdateLabel(text string) {
	t.logger.Info(text)
	t.update(func(s *Snapshot) { s.Label = text })
}

func (t *Tracker) IsCancelled() bool {
	return t.ctx.Err() != nil
}

func (t *Tracker) Complete(status report.Status) {
	switch status {
	case report.StatusError:
		t.logger.Error("report run failed")
	case report.StatusCancelled:
		t.logger.Warn("report run cancelled")
	default:
		t.logger.Info("report run complete")
	}
	t.update(func(s *Snapshot) { s.Status = status })
	t.cancel()
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) update(fn func(s *Snapshot)) {
	t.mu.Lock()
	fn(&t.state)
	snap, cb := t.state, t.onUpdate
	t.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}
