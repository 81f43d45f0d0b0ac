// SPDX-License-Identifier: Apache-2.0

package feeds

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/witnessreport/witness-report/internal/evidence"
)

// CommentsFile is the per-category sidecar mapping file names to comments.
const CommentsFile = ".comments.yaml"

// TimeLayout formats file system timestamps.
const TimeLayout = "2006-01-02 15:04:05 MST"

// DirectoryLoader treats every subdirectory of the source path as a tag
// category. Regular files inside a category are tagged files; nested
// directories are tagged items that cannot be reported on.
type DirectoryLoader struct {
	// Hashes enables MD5 calculation for regular files.
	Hashes bool
	// Ignore lists absolute paths that are never read as evidence, such as
	// the report output directory.
	Ignore []string
}

// NewDirectoryLoader creates a loader that skips the ignore paths.
func NewDirectoryLoader(hashes bool, ignore ...string) *DirectoryLoader {
	l := &DirectoryLoader{Hashes: hashes}
	for _, p := range ignore {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		l.Ignore = append(l.Ignore, filepath.Clean(p))
	}
	return l
}

func (l *DirectoryLoader) ignored(p string) bool {
	for _, ig := range l.Ignore {
		if p == ig {
			return true
		}
	}
	return false
}

func (l *DirectoryLoader) Name() string {
	return "directory"
}

func (l *DirectoryLoader) CanHandle(source evidence.EvidenceSource) bool {
	if strings.EqualFold(source.Format, "directory") {
		return true
	}
	if source.Format != "" || source.Path == "" {
		return false
	}
	info, err := os.Stat(source.Path)
	return err == nil && info.IsDir()
}

func (l *DirectoryLoader) Load(ctx context.Context, source evidence.EvidenceSource) (evidence.Feed, error) {
	root, err := filepath.Abs(source.Path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read evidence directory: %w", err)
	}

	feed := evidence.NewMemoryFeed(filepath.Base(root))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || l.ignored(filepath.Join(root, entry.Name())) {
			continue
		}
		files, err := l.loadCategory(root, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", entry.Name(), err)
		}
		feed.Add(entry.Name(), files...)
	}
	return feed, nil
}

func (l *DirectoryLoader) loadCategory(root, category string) ([]evidence.TaggedFile, error) {
	dir := filepath.Join(root, category)
	comments, err := readComments(filepath.Join(dir, CommentsFile))
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]evidence.TaggedFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || l.ignored(filepath.Join(dir, name)) {
			continue
		}
		kind := evidence.KindFile
		switch {
		case entry.IsDir():
			kind = evidence.KindDirectory
		case !entry.Type().IsRegular():
			kind = evidence.KindVirtual
		}
		files = append(files, &dirFile{
			path:       filepath.Join(dir, name),
			uniquePath: path.Join("/", category, name),
			name:       name,
			comment:    comments[name],
			kind:       kind,
			hashes:     l.Hashes,
		})
	}
	return files, nil
}

func readComments(file string) (map[string]string, error) {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var comments map[string]string
	if err := yaml.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", CommentsFile, err)
	}
	return comments, nil
}

// dirFile reads its metadata from the file system when asked.
type dirFile struct {
	path       string
	uniquePath string
	name       string
	comment    string
	kind       evidence.FileKind
	hashes     bool
}

func (f *dirFile) Name() string { return f.name }

func (f *dirFile) IsRegularFile() bool { return f.kind == evidence.KindFile }

func (f *dirFile) Metadata(ctx context.Context) (evidence.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return evidence.Metadata{}, err
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return evidence.Metadata{}, err
	}
	meta := evidence.Metadata{
		Name:       f.name,
		LocalPath:  f.path,
		UniquePath: f.uniquePath,
		ModifiedAt: info.ModTime().Format(TimeLayout),
		Comment:    f.comment,
	}
	if f.hashes && f.IsRegularFile() {
		sum, err := md5File(f.path)
		if err != nil {
			return evidence.Metadata{}, fmt.Errorf("hash: %w", err)
		}
		meta.Hash = sum
	}
	return meta, nil
}

func (f *dirFile) RawBytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.path)
}

func md5File(file string) (string, error) {
	fh, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	h := md5.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
