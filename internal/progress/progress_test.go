// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/evidence"
	"github.com/witnessreport/witness-report/internal/report"
)

func TestTracker_Updates(t *testing.T) {
	var logs bytes.Buffer
	tr := New(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	var seen []Snapshot
	tr.OnUpdate(func(s Snapshot) { seen = append(seen, s) })

	tr.SetMaximum(3)
	tr.UpdateLabel(`Adding "Notable Item" files to report.docx...`)
	tr.Increment()
	tr.Increment()

	snap := tr.Snapshot()
	assert.Equal(t, 3, snap.Maximum)
	assert.Equal(t, 2, snap.Done)
	assert.Equal(t, `Adding "Notable Item" files to report.docx...`, snap.Label)
	assert.Len(t, seen, 4)
	assert.Contains(t, logs.String(), "Notable Item")

	tr.SetMaximum(1)
	assert.Zero(t, tr.Snapshot().Done)
	assert.False(t, tr.IsCancelled())

	tr.Complete(report.StatusComplete)
	assert.Equal(t, report.StatusComplete, tr.Snapshot().Status)
	assert.Contains(t, logs.String(), "report run complete")
}

func TestTracker_Cancel(t *testing.T) {
	tr := New(context.Background(), nil)
	require.False(t, tr.IsCancelled())
	tr.Cancel()
	assert.True(t, tr.IsCancelled())
	assert.Error(t, tr.Context().Err())
}

func TestTracker_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := New(ctx, nil)
	cancel()
	assert.True(t, tr.IsCancelled())
}

func TestTracker_DrivesGenerator(t *testing.T) {
	doc := docx.New()
	doc.AppendParagraph("Evidence", "Heading1")
	feed := evidence.NewMemoryFeed("case-1")
	feed.Add("Notable Item",
		&evidence.File{Meta: evidence.Metadata{Name: "a.txt"}},
		&evidence.File{Meta: evidence.Metadata{Name: "b.txt"}},
	)

	tr := New(context.Background(), nil)
	tr.OnUpdate(func(s Snapshot) {
		if s.Done == 1 {
			tr.Cancel()
		}
	})
	cfg := report.Config{
		Document:    doc,
		HeadingText: "Evidence",
		TableColour: "003366",
		Categories:  []evidence.TagCategory{{Name: "Notable Item"}},
		OutputDir:   t.TempDir(),
	}
	res, err := report.NewGenerator(nil, nil).Generate(tr.Context(), cfg, feed, tr)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 1, res.TablesCreated)
	assert.Equal(t, report.StatusCancelled, tr.Snapshot().Status)
}
