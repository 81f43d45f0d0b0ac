// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/evidence"
	"github.com/witnessreport/witness-report/internal/registry"
)

// Status is the final state reported to Progress.
type Status string

const (
	StatusComplete  Status = "complete"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

// Progress receives progress updates and is polled for cancellation between
// tag categories and between records.
type Progress interface {
	SetMaximum(n int)
	Increment()
	UpdateLabel(text string)
	IsCancelled() bool
	Complete(status Status)
}

type nopProgress struct{}

func (nopProgress) SetMaximum(int)     {}
func (nopProgress) Increment()         {}
func (nopProgress) UpdateLabel(string) {}
func (nopProgress) IsCancelled() bool  { return false }
func (nopProgress) Complete(Status)    {}

// CategoryResult counts what happened to one tag category.
type CategoryResult struct {
	Name          string
	TablesCreated int
	// Err is set when the category was cut short by a document mutation
	// failure.
	Err error
}

// GeneratedReport is the outcome of a run.
type GeneratedReport struct {
	RunID string
	// Path is empty when nothing was written.
	Path          string
	Categories    []CategoryResult
	TablesCreated int
	FailedExports []ExportFailure
	// Warnings are problems that did not keep a record out of the report.
	Warnings  []string
	Cancelled bool
	// RegistrationErr is set when the report was written but could not be
	// registered.
	RegistrationErr error
}

// Summary is the aggregated failed-exports message, or "".
func (r *GeneratedReport) Summary() string {
	return FailureSummary(r.FailedExports)
}

// Generator runs the report pipeline.
type Generator struct {
	logger   *slog.Logger
	mapper   *evidence.RecordMapper
	registry registry.Registry
}

// NewGenerator creates a Generator. reg may be nil.
func NewGenerator(logger *slog.Logger, reg registry.Registry) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		logger:   logger,
		mapper:   evidence.NewRecordMapper(),
		registry: reg,
	}
}

// Generate inserts a table for every regular tagged file of the selected
// categories into cfg.Document, writes the report to cfg.OutputPath() and
// registers it.
//
// An invalid configuration, a failed category fetch, a missing or ambiguous
// heading and a failed write end the run with an error and nothing written.
// Per-file problems are collected in FailedExports. A cancelled run writes
// nothing and returns a report with Cancelled set.
func (g *Generator) Generate(ctx context.Context, cfg Config, feed evidence.Feed, progress Progress) (*GeneratedReport, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	if err := cfg.Validate(); err != nil {
		progress.Complete(StatusError)
		return nil, err
	}
	if feed == nil {
		progress.Complete(StatusError)
		return nil, fmt.Errorf("%w: no evidence feed", ErrConfigValidation)
	}

	res := &GeneratedReport{RunID: uuid.NewString()}
	log := g.logger.With("run_id", res.RunID, "case", feed.Case())
	style := cfg.tableStyle()
	log.Info("generating report", "categories", len(cfg.Categories), "heading", cfg.HeadingText, "style", style.Variant)

	// The heading is only searched for among the template's own paragraphs,
	// so captions written by this run never count as matches.
	original := make(map[*docx.Paragraph]bool)
	for _, p := range cfg.Document.Paragraphs() {
		original[p] = true
	}
	templateTables := cfg.Document.Tables()

	for _, cat := range cfg.Categories {
		if cancelled(ctx, progress) {
			res.Cancelled = true
			break
		}

		files, err := feed.FetchTagged(ctx, cat)
		if err != nil {
			log.Error("fetch tagged files", "category", cat.Name, "error", err)
			progress.Complete(StatusError)
			return nil, fmt.Errorf("%w: category %q: %w", ErrDataAccess, cat.Name, err)
		}

		progress.SetMaximum(len(files))
		progress.UpdateLabel(fmt.Sprintf("Adding %q files to %s...", cat.Name, cfg.documentLabel()))

		catRes, err := g.insertCategory(ctx, log, cfg, style, cat, files, original, progress, res)
		if err != nil {
			progress.Complete(StatusError)
			return nil, err
		}
		res.Categories = append(res.Categories, catRes)
		res.TablesCreated += catRes.TablesCreated
	}

	if res.Cancelled {
		log.Info("report generation cancelled", "tables", res.TablesCreated)
		progress.Complete(StatusCancelled)
		return res, nil
	}

	if cfg.Exhibits != nil {
		if err := restyleExhibits(*cfg.Exhibits, style, templateTables); err != nil {
			log.Warn("exhibit table not restyled", "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		}
	}

	if summary := res.Summary(); summary != "" {
		log.Warn(summary, "failed", len(res.FailedExports))
	}

	path := cfg.OutputPath()
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		progress.Complete(StatusError)
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := cfg.Document.Save(path); err != nil {
		log.Error("write report", "path", path, "error", err)
		progress.Complete(StatusError)
		return nil, fmt.Errorf("%w: %s: %w", ErrPersist, path, err)
	}
	res.Path = path
	log.Info("report written", "path", path, "tables", res.TablesCreated)

	if g.registry != nil {
		artifact := registry.Artifact{
			Case:         feed.Case(),
			RunID:        res.RunID,
			DisplayName:  registry.DisplayName,
			Path:         path,
			RelativePath: cfg.RelativePath(),
			CreatedAt:    time.Now().UTC(),
		}
		if err := g.registry.Register(ctx, artifact); err != nil {
			log.Error("register report", "path", path, "error", err)
			res.RegistrationErr = fmt.Errorf("%w: register %s: %w", ErrPersist, path, err)
		}
	}

	progress.Complete(StatusComplete)
	return res, nil
}

// insertCategory adds the tables of one category. The returned error is
// fatal to the run; a mutation failure only ends the category.
func (g *Generator) insertCategory(
	ctx context.Context,
	log *slog.Logger,
	cfg Config,
	style TableStyle,
	cat evidence.TagCategory,
	files []evidence.TaggedFile,
	original map[*docx.Paragraph]bool,
	progress Progress,
	res *GeneratedReport,
) (CategoryResult, error) {
	out := CategoryResult{Name: cat.Name}
	cur := NewInsertionCursor()

	var paragraphs []*docx.Paragraph
	for _, p := range cfg.Document.Paragraphs() {
		if original[p] {
			paragraphs = append(paragraphs, p)
		}
	}

	fail := func(name string, err error) {
		log.Warn("file not exported", "category", cat.Name, "file", name, "error", err)
		res.FailedExports = append(res.FailedExports, ExportFailure{Category: cat.Name, File: name, Err: err})
	}

	for i, f := range files {
		if cancelled(ctx, progress) {
			res.Cancelled = true
			break
		}
		if !f.IsRegularFile() {
			fail(f.Name(), fmt.Errorf("%w: %s", ErrUnsupportedContent, f.Name()))
			progress.Increment()
			continue
		}

		rec, err := g.mapper.Map(ctx, f)
		if err != nil {
			fail(f.Name(), fmt.Errorf("%w: %w", ErrDataAccess, err))
			progress.Increment()
			continue
		}

		anchor := Locate(paragraphs, cfg.HeadingText)
		if err := anchor.Err(cfg.HeadingText); err != nil {
			log.Error("locate evidence heading", "category", cat.Name, "matches", anchor.MatchCount)
			return out, err
		}

		progress.UpdateLabel(fmt.Sprintf("Adding %s from %q to %s...", rec.Name, cat.Name, cfg.documentLabel()))
		_, err = InsertRecord(cfg.Document, cur, anchor, rec, style)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnsupportedContent):
			log.Warn("picture not embedded", "category", cat.Name, "file", rec.Name, "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		default:
			fail(rec.Name, err)
			out.Err = err
			log.Error("category aborted", "category", cat.Name, "error", err)
			for _, rest := range files[i+1:] {
				fail(rest.Name(), fmt.Errorf("%w: category %q aborted after %s", ErrDocumentMutation, cat.Name, rec.Name))
			}
			return out, nil
		}
		out.TablesCreated++
		progress.Increment()
	}
	return out, nil
}

// restyleExhibits colours the header row of the template's exhibit table
// like the key column of the evidence tables.
func restyleExhibits(ex ExhibitTable, style TableStyle, tables []*docx.Table) error {
	if ex.Index >= len(tables) {
		return fmt.Errorf("template has no exhibit table at index %d", ex.Index)
	}
	tbl := tables[ex.Index]
	row := tbl.HeaderRow()
	if row == nil {
		return fmt.Errorf("exhibit table %d has no rows", ex.Index)
	}
	for i, col := range ex.Columns {
		cell := row.Cell(i)
		if cell == nil {
			cell = row.AddCell()
		}
		StyleCell(cell, style.Background, col.Title, style.KeyFontColour, true, col.Center)
	}
	if ex.Width > 0 {
		tbl.SetWidth(ex.Width)
	}
	return nil
}

func cancelled(ctx context.Context, progress Progress) bool {
	return ctx.Err() != nil || progress.IsCancelled()
}
