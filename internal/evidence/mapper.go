// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// MissingHashText is reported in place of a hash that has not been calculated.
const MissingHashText = "Hashes have not been calculated. Please configure and run an appropriate ingest module."

// imageExtensions lists the file extensions whose content is embedded in the report.
var imageExtensions = []string{"jpg", "jpeg", "gif", "png"}

// Record is the flattened, report-relevant view of one tagged file.
type Record struct {
	Name       string
	Path       string
	Hash       string
	CreatedAt  string
	ModifiedAt string
	AccessedAt string
	Comment    string
	// RawContent is only set for image files.
	RawContent []byte
}

// Field is one labelled value of a Record.
type Field struct {
	Label string
	Value string
	// Timestamp marks the created, modified and accessed rows.
	Timestamp bool
}

// recordFields defines the labelled rows of a record, in report order.
var recordFields = []struct {
	label     string
	value     func(Record) string
	timestamp bool
}{
	{label: "File Name", value: func(r Record) string { return r.Name }},
	{label: "File Path", value: func(r Record) string { return r.Path }},
	{label: "Hash Value", value: func(r Record) string {
		if r.Hash == "" {
			return MissingHashText
		}
		return r.Hash
	}},
	{label: "Created time", value: func(r Record) string { return r.CreatedAt }, timestamp: true},
	{label: "Modified time", value: func(r Record) string { return r.ModifiedAt }, timestamp: true},
	{label: "Accessed time", value: func(r Record) string { return r.AccessedAt }, timestamp: true},
}

// Fields returns the record's labelled values in report order.
func (r Record) Fields() []Field {
	out := make([]Field, len(recordFields))
	for i, f := range recordFields {
		out[i] = Field{Label: f.label, Value: f.value(r), Timestamp: f.timestamp}
	}
	return out
}

// FieldLabels returns the row labels used by Fields.
func FieldLabels() []string {
	out := make([]string, len(recordFields))
	for i, f := range recordFields {
		out[i] = f.label
	}
	return out
}

// IsImageName reports whether name has an extension whose content is embedded.
func IsImageName(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// RecordMapper maps tagged files to Records.
type RecordMapper struct{}

// NewRecordMapper creates a new RecordMapper.
func NewRecordMapper() *RecordMapper {
	return &RecordMapper{}
}

// Map builds a fresh Record for f. Every call starts from an empty record, so
// values never carry over from a previous file.
func (m *RecordMapper) Map(ctx context.Context, f TaggedFile) (Record, error) {
	meta, err := f.Metadata(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("metadata for %q: %w", f.Name(), err)
	}

	var rec Record
	rec.Name = meta.Name
	if rec.Name == "" {
		rec.Name = f.Name()
	}
	rec.Path = meta.LocalPath
	if rec.Path == "" {
		rec.Path = meta.UniquePath
	}
	rec.Hash = strings.TrimSpace(meta.Hash)
	rec.CreatedAt = meta.CreatedAt
	rec.ModifiedAt = meta.ModifiedAt
	rec.AccessedAt = meta.AccessedAt
	rec.Comment = strings.TrimSpace(meta.Comment)

	if IsImageName(rec.Name) {
		raw, err := f.RawBytes(ctx)
		if err != nil {
			return Record{}, fmt.Errorf("content of %q: %w", rec.Name, err)
		}
		rec.RawContent = raw
	}
	return rec, nil
}
