// SPDX-License-Identifier: Apache-2.0

// Package template resolves report templates: the built-in ones extracted
// into a cache directory, and user supplied documents.
package template

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/report"
)

const cacheSize = 32

// DefaultDir returns ~/.witness-report/templates.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".witness-report", "templates"), nil
}

// Template is an opened template ready to be filled.
type Template struct {
	// Name is the built-in display name or the file's base name.
	Name string
	Path string
	// Extension is the file extension without the dot.
	Extension string
	// Heading is the suggested evidence heading, empty for user templates.
	Heading string
	// Exhibits is set for built-in templates with an exhibit table.
	Exhibits *report.ExhibitTable
	Document *docx.Document
}

// Store opens templates. Template bytes are cached; every Open returns a
// freshly parsed document.
type Store struct {
	dir    string
	logger *slog.Logger
	cache  *lru.Cache[string, []byte]

	mu sync.Mutex
}

// NewStore creates a Store extracting built-in templates into dir. An empty
// dir selects DefaultDir.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, logger: logger, cache: cache}, nil
}

func (s *Store) Dir() string { return s.dir }

// Open resolves ref, which is a built-in ID or name, or a path to a
// document with a supported extension.
func (s *Store) Open(ref string) (*Template, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("template is required")
	}
	if b, ok := LookupBuiltin(ref); ok {
		return s.openBuiltin(b)
	}
	if IsBuiltin(ref) {
		return nil, fmt.Errorf("unknown built-in template %q", ref)
	}
	return s.openFile(ref)
}

// Extract writes the built-in template into the store directory unless it
// is already there, and returns its path.
func (s *Store) Extract(b Builtin) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, b.FileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create template directory: %w", err)
	}
	if err := b.Document().Save(path); err != nil {
		return "", fmt.Errorf("extract %s: %w", b.Name, err)
	}
	s.logger.Info("extracted built-in template", "template", b.ID, "path", path)
	return path, nil
}

func (s *Store) openBuiltin(b Builtin) (*Template, error) {
	path, err := s.Extract(b)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(path)
	if err != nil {
		return nil, err
	}
	return &Template{
		Name:      b.Name,
		Path:      path,
		Extension: report.DefaultExtension,
		Heading:   b.Heading,
		Exhibits:  b.Exhibits(),
		Document:  doc,
	}, nil
}

func (s *Store) openFile(path string) (*Template, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !report.IsSupportedExtension(ext) {
		return nil, fmt.Errorf("unsupported template extension %q: want one of %s",
			ext, strings.Join(report.SupportedExtensions, ", "))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(abs)
	if err != nil {
		return nil, err
	}
	return &Template{
		Name:      filepath.Base(abs),
		Path:      abs,
		Extension: strings.ToLower(ext),
		Document:  doc,
	}, nil
}

// load parses the document at path, reusing cached bytes while the file's
// size and modification time are unchanged.
func (s *Store) load(path string) (*docx.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())

	data, ok := s.cache.Get(key)
	if !ok {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		s.cache.Add(key, data)
	}
	doc, err := docx.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Cached reports how many template versions are held in memory.
func (s *Store) Cached() int { return s.cache.Len() }
