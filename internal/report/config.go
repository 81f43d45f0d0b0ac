// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/evidence"
)

// MinHeadingLength is the shortest accepted evidence heading, in characters.
const MinHeadingLength = 3

const DefaultExtension = "docx"

// SupportedExtensions lists the output formats a report can be saved as.
var SupportedExtensions = []string{"docx", "docm", "dotx", "dotm"}

// IsSupportedExtension reports whether ext (without the dot) is a supported
// output format.
func IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Config holds the choices for one report run. The document is mutated in
// place and stays owned by the caller.
type Config struct {
	Document *docx.Document
	// HeadingText must occur in exactly one body paragraph of Document.
	HeadingText string
	// TableColour is the key column background as 6 hex digits.
	TableColour   string
	Categories    []evidence.TagCategory
	FileExtension string
	OutputDir     string
	Variant       TableVariant
	// DocumentName is used in progress labels only.
	DocumentName string
	// Exhibits, when set, names a table of the template whose header row
	// takes the table colour.
	Exhibits *ExhibitTable
}

// ExhibitTable is a table already present in a template whose header row is
// restyled to match the evidence tables.
type ExhibitTable struct {
	// Index counts the body tables of the template before any insertion.
	Index   int
	Columns []ExhibitColumn
	// Width is the table width in twentieths of a point; 0 keeps the
	// template's width.
	Width int
}

// ExhibitColumn is one header cell of an exhibit table.
type ExhibitColumn struct {
	Title  string
	Center bool
}

// Validate checks the configuration before anything is changed.
func (c Config) Validate() error {
	if c.Document == nil {
		return fmt.Errorf("%w: no target document", ErrConfigValidation)
	}
	if c.HeadingText == "" {
		return fmt.Errorf("%w: evidence heading is empty", ErrConfigValidation)
	}
	if utf8.RuneCountInString(c.HeadingText) < MinHeadingLength {
		return fmt.Errorf("%w: evidence heading %q is shorter than %d characters", ErrConfigValidation, c.HeadingText, MinHeadingLength)
	}
	if !IsHexColour(c.TableColour) {
		return fmt.Errorf("%w: table colour %q is not a 6 digit hex code", ErrConfigValidation, c.TableColour)
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: tag category without a name", ErrConfigValidation)
		}
		if seen[cat.Name] {
			return fmt.Errorf("%w: tag category %q selected twice", ErrConfigValidation, cat.Name)
		}
		seen[cat.Name] = true
	}
	if !IsSupportedExtension(c.Extension()) {
		return fmt.Errorf("%w: unsupported file extension %q", ErrConfigValidation, c.FileExtension)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: no output directory", ErrConfigValidation)
	}
	switch c.Variant {
	case "", VariantBasic, VariantExtended:
	default:
		return fmt.Errorf("%w: unknown table style %q", ErrConfigValidation, c.Variant)
	}
	if c.Exhibits != nil && (c.Exhibits.Index < 0 || len(c.Exhibits.Columns) == 0) {
		return fmt.Errorf("%w: exhibit table needs a table index and header columns", ErrConfigValidation)
	}
	return nil
}

// Extension returns the output extension, defaulting to docx.
func (c Config) Extension() string {
	ext := strings.ToLower(strings.TrimPrefix(c.FileExtension, "."))
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

// RelativePath is the report's file name inside the output directory.
func (c Config) RelativePath() string {
	return "report." + c.Extension()
}

// OutputPath is where the report is written.
func (c Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.RelativePath())
}

func (c Config) documentLabel() string {
	if c.DocumentName != "" {
		return c.DocumentName
	}
	return c.RelativePath()
}

func (c Config) tableStyle() TableStyle {
	variant := c.Variant
	if variant == "" {
		variant = VariantBasic
	}
	return NewTableStyle(strings.ToLower(c.TableColour), variant)
}
