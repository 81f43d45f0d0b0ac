// SPDX-License-Identifier: Apache-2.0

// Package feeds provides evidence feeds read from case exports.
package feeds

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/witnessreport/witness-report/internal/evidence"
	"github.com/witnessreport/witness-report/internal/schema"
)

type manifest struct {
	Case       string             `yaml:"case" json:"case,omitempty"`
	Categories []manifestCategory `yaml:"categories" json:"categories,omitempty"`
}

type manifestCategory struct {
	Name  string         `yaml:"name" json:"name"`
	Files []manifestFile `yaml:"files" json:"files,omitempty"`
}

type manifestFile struct {
	Name       string `yaml:"name" json:"name"`
	Kind       string `yaml:"kind" json:"kind,omitempty"`
	Path       string `yaml:"path" json:"path,omitempty"`
	LocalPath  string `yaml:"local_path" json:"local_path,omitempty"`
	UniquePath string `yaml:"unique_path" json:"unique_path,omitempty"`
	Hash       string `yaml:"hash" json:"hash,omitempty"`
	Created    string `yaml:"created" json:"created,omitempty"`
	Modified   string `yaml:"modified" json:"modified,omitempty"`
	Accessed   string `yaml:"accessed" json:"accessed,omitempty"`
	Comment    string `yaml:"comment" json:"comment,omitempty"`
}

// ManifestLoader reads a YAML or JSON case export listing tagged files per
// category. Relative content paths resolve against the manifest's directory.
type ManifestLoader struct{}

func NewManifestLoader() *ManifestLoader {
	return &ManifestLoader{}
}

func (l *ManifestLoader) Name() string {
	return "manifest"
}

func (l *ManifestLoader) CanHandle(source evidence.EvidenceSource) bool {
	switch strings.ToLower(source.Format) {
	case "manifest", "yaml", "yml", "json":
		return true
	case "directory":
		return false
	}
	switch strings.ToLower(filepath.Ext(source.Path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	content := bytes.TrimSpace(source.Content)
	if bytes.HasPrefix(content, []byte("{")) {
		return true
	}
	return bytes.Contains(content, []byte("categories:"))
}

func (l *ManifestLoader) Load(ctx context.Context, source evidence.EvidenceSource) (evidence.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := source.Content
	if content == nil {
		if source.Path == "" {
			return nil, fmt.Errorf("manifest source %q has no content", source.ID)
		}
		data, err := os.ReadFile(source.Path)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		content = data
	}

	var m manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if err := schema.Validate(schema.Manifest, m); err != nil {
		return nil, err
	}

	baseDir := ""
	if source.Path != "" {
		baseDir = filepath.Dir(source.Path)
	}

	feed := evidence.NewMemoryFeed(m.Case)
	seen := make(map[string]bool, len(m.Categories))
	for _, cat := range m.Categories {
		if seen[cat.Name] {
			return nil, fmt.Errorf("duplicate tag category %q", cat.Name)
		}
		seen[cat.Name] = true

		files := make([]evidence.TaggedFile, 0, len(cat.Files))
		for _, mf := range cat.Files {
			f, err := mf.toFile(baseDir)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", cat.Name, err)
			}
			files = append(files, f)
		}
		feed.Add(cat.Name, files...)
	}
	return feed, nil
}

func (mf manifestFile) toFile(baseDir string) (*evidence.File, error) {
	kind, err := evidence.ParseFileKind(mf.Kind)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", mf.Name, err)
	}

	contentPath := mf.Path
	if contentPath == "" {
		contentPath = mf.LocalPath
	}
	if contentPath != "" && !filepath.IsAbs(contentPath) && baseDir != "" {
		contentPath = filepath.Join(baseDir, contentPath)
	}

	// An entry with only a content path reports that path as its location.
	localPath := mf.LocalPath
	if localPath == "" {
		localPath = contentPath
	}

	return &evidence.File{
		Meta: evidence.Metadata{
			Name:       mf.Name,
			LocalPath:  localPath,
			UniquePath: mf.UniquePath,
			Hash:       mf.Hash,
			CreatedAt:  mf.Created,
			ModifiedAt: mf.Modified,
			AccessedAt: mf.Accessed,
			Comment:    mf.Comment,
		},
		Kind:        kind,
		ContentPath: contentPath,
	}, nil
}
