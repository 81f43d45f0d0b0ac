// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"strings"

	"github.com/witnessreport/witness-report/internal/docx"
)

// Anchor is the result of looking for the evidence heading.
type Anchor struct {
	MatchCount int
	// ParagraphIndex is the index of the match in the scanned paragraphs, or
	// -1 unless MatchCount is 1.
	ParagraphIndex int
	// Paragraph is the matching paragraph when MatchCount is 1.
	Paragraph *docx.Paragraph
}

// Locate scans paragraphs in order for text containing heading as an exact,
// case-sensitive substring. Scanning stops at the second match. paragraphs
// must be a snapshot; Locate does not modify it.
func Locate(paragraphs []*docx.Paragraph, heading string) Anchor {
	a := Anchor{ParagraphIndex: -1}
	for i, p := range paragraphs {
		if p == nil || !strings.Contains(p.Text(), heading) {
			continue
		}
		a.MatchCount++
		if a.MatchCount > 1 {
			break
		}
		a.ParagraphIndex = i
		a.Paragraph = p
	}
	if a.MatchCount != 1 {
		a.ParagraphIndex = -1
		a.Paragraph = nil
	}
	return a
}

// Err maps the match count to ErrAnchorNotFound or ErrAnchorAmbiguous.
func (a Anchor) Err(heading string) error {
	switch {
	case a.MatchCount == 0:
		return fmt.Errorf("%w: no paragraph contains %q", ErrAnchorNotFound, heading)
	case a.MatchCount > 1:
		return fmt.Errorf("%w: more than one paragraph contains %q", ErrAnchorAmbiguous, heading)
	}
	return nil
}
