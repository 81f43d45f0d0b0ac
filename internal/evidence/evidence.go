// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TagCategory is a named label applied to evidence items in a case.
type TagCategory struct {
	Name string `json:"name" yaml:"name"`
}

// Metadata is what the case tool knows about a tagged file.
type Metadata struct {
	Name string
	// LocalPath is the absolute path of an extracted copy, if there is one.
	LocalPath string
	// UniquePath is the case tool's logical path for the item.
	UniquePath string
	// Hash is empty until a hash has been calculated.
	Hash       string
	CreatedAt  string
	ModifiedAt string
	AccessedAt string
	Comment    string
}

// TaggedFile is one tagged item handed out by a Feed.
type TaggedFile interface {
	Name() string
	// IsRegularFile reports whether the item is a file whose content can be
	// reported on. Directories, unallocated space and virtual items are not.
	IsRegularFile() bool
	Metadata(ctx context.Context) (Metadata, error)
	RawBytes(ctx context.Context) ([]byte, error)
}

// Feed exposes the tagged files of one case, grouped by tag category.
type Feed interface {
	Case() string
	Categories(ctx context.Context) ([]TagCategory, error)
	FetchTagged(ctx context.Context, category TagCategory) ([]TaggedFile, error)
}

// EvidenceSource describes where a feed is loaded from.
type EvidenceSource struct {
	// Content is the raw manifest content, if the source has one.
	Content []byte
	Format  string
	ID      string
	// Path is the file or directory the source was read from.
	Path string
}

// FeedLoader turns an EvidenceSource into a Feed.
type FeedLoader interface {
	CanHandle(source EvidenceSource) bool
	Load(ctx context.Context, source EvidenceSource) (Feed, error)
	Name() string
}

// FileKind classifies a tagged item.
type FileKind string

const (
	KindFile        FileKind = "file"
	KindDirectory   FileKind = "directory"
	KindUnallocated FileKind = "unallocated"
	KindVirtual     FileKind = "virtual"
)

// ParseFileKind maps a kind name to a FileKind. The empty string is a file.
func ParseFileKind(s string) (FileKind, error) {
	switch k := FileKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindFile, nil
	case KindFile, KindDirectory, KindUnallocated, KindVirtual:
		return k, nil
	}
	return "", fmt.Errorf("unknown file kind %q", s)
}

// File is an in-memory TaggedFile. Content wins over ContentPath when both
// are set.
type File struct {
	Meta        Metadata
	Kind        FileKind
	Content     []byte
	ContentPath string
}

func (f *File) Name() string { return f.Meta.Name }

func (f *File) IsRegularFile() bool { return f.Kind == "" || f.Kind == KindFile }

func (f *File) Metadata(context.Context) (Metadata, error) { return f.Meta, nil }

func (f *File) RawBytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Content != nil {
		return f.Content, nil
	}
	if f.ContentPath == "" {
		return nil, fmt.Errorf("no content available for %q", f.Meta.Name)
	}
	return os.ReadFile(f.ContentPath)
}

// MemoryFeed is a Feed backed by a fixed list of categories.
type MemoryFeed struct {
	caseName   string
	categories []TagCategory
	files      map[string][]TaggedFile
}

func NewMemoryFeed(caseName string) *MemoryFeed {
	return &MemoryFeed{
		caseName: caseName,
		files:    make(map[string][]TaggedFile),
	}
}

// Add appends files to a category, creating it on first use.
func (m *MemoryFeed) Add(category string, files ...TaggedFile) {
	if _, ok := m.files[category]; !ok {
		m.categories = append(m.categories, TagCategory{Name: category})
		m.files[category] = nil
	}
	m.files[category] = append(m.files[category], files...)
}

func (m *MemoryFeed) Case() string { return m.caseName }

func (m *MemoryFeed) Categories(ctx context.Context) ([]TagCategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]TagCategory, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *MemoryFeed) FetchTagged(ctx context.Context, category TagCategory) ([]TaggedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, ok := m.files[category.Name]
	if !ok {
		return nil, fmt.Errorf("unknown tag category %q", category.Name)
	}
	out := make([]TaggedFile, len(files))
	copy(out, files)
	return out, nil
}
