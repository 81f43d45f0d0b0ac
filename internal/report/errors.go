// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"strings"
)

var (
	// ErrConfigValidation is returned before any mutation when the
	// configuration is unusable.
	ErrConfigValidation = errors.New("invalid report configuration")
	// ErrAnchorNotFound is returned when no paragraph contains the heading.
	ErrAnchorNotFound = errors.New("evidence heading not found")
	// ErrAnchorAmbiguous is returned when more than one paragraph contains
	// the heading.
	ErrAnchorAmbiguous = errors.New("evidence heading must be unique")
	ErrDataAccess      = errors.New("evidence data access failed")
	// ErrUnsupportedContent marks a tagged item that is not a regular file.
	ErrUnsupportedContent = errors.New("tagged item is not a regular file")
	ErrDocumentMutation   = errors.New("document mutation failed")
	ErrPersist            = errors.New("report could not be written")
)

// ExportFailure is a tagged file that could not be added to the report.
type ExportFailure struct {
	Category string
	File     string
	Err      error
}

func (f ExportFailure) Error() string {
	return f.File + ": " + f.Err.Error()
}

func (f ExportFailure) Unwrap() error { return f.Err }

// FailureSummary is the message shown for a set of failed exports, or the
// empty string when there are none.
func FailureSummary(failures []ExportFailure) string {
	if len(failures) == 0 {
		return ""
	}
	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = f.File
	}
	return "Failed to export the following files: " + strings.Join(names, ",") + "."
}
