// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/registry"
	"github.com/witnessreport/witness-report/internal/report"
)

const manifest = `case: "2024-017"
categories:
  - name: Notable Item
    files:
      - name: a.txt
        unique_path: /img/a.txt
      - name: b.txt
        unique_path: /img/b.txt
        comment: Recovered from unallocated space
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeManifest(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "case.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

func TestGenerateCommand_Flags(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "Reports")

	stdout, err := execute(t, "generate",
		"--templates-dir", filepath.Join(dir, "templates"),
		"-t", "builtin:3",
		"-e", writeManifest(t, dir),
		"-o", out,
		"--colour", "Dark Green",
		"--style", "extended",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote "+filepath.Join(out, "report.docx")+" (2 tables)")
	assert.Contains(t, stdout, "Notable Item: 2")

	doc, err := docx.Open(filepath.Join(out, "report.docx"))
	require.NoError(t, err)
	require.Len(t, doc.Tables(), 2)
	assert.Contains(t, documentXML(t, filepath.Join(out, "report.docx")), `w:fill="009933"`)

	reg, err := registry.NewFileRegistry(out)
	require.NoError(t, err)
	list, err := reg.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Forensic Report", list[0].DisplayName)
}

func TestGenerateCommand_SettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.yaml")
	content := "template: builtin:1\n" +
		"templates_dir: " + filepath.Join(dir, "templates") + "\n" +
		"output_dir: " + filepath.Join(dir, "Reports") + "\n" +
		"extension: docm\n" +
		"categories: [Notable Item]\n" +
		"evidence:\n  path: " + writeManifest(t, dir) + "\n" +
		"registry:\n  local: false\n"
	require.NoError(t, os.WriteFile(settings, []byte(content), 0o644))

	stdout, err := execute(t, "generate", "-c", settings, "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "report.docm")

	doc, err := docx.Open(filepath.Join(dir, "Reports", "report.docm"))
	require.NoError(t, err)
	require.Len(t, doc.Tables(), 3)
	assert.Equal(t, []string{"Item", "Serial Number", "Description", "Type"}, doc.Tables()[0].CellTexts()[0])

	_, err = os.Stat(filepath.Join(dir, "Reports", registry.IndexFile))
	assert.True(t, os.IsNotExist(err), "local registry is disabled")
}

func TestGenerateCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	evidence := writeManifest(t, dir)
	templates := filepath.Join(dir, "templates")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "missing output dir",
			args:    []string{"generate", "-t", "builtin:1", "-e", evidence, "--templates-dir", templates},
			wantErr: report.ErrConfigValidation,
		},
		{
			name:    "heading not in template",
			args:    []string{"generate", "-t", "builtin:1", "-e", evidence, "-o", dir, "--heading", "Appendix Z", "--templates-dir", templates},
			wantErr: report.ErrAnchorNotFound,
		},
		{
			name:    "unknown category",
			args:    []string{"generate", "-t", "builtin:1", "-e", evidence, "-o", dir, "--category", "Nope", "--templates-dir", templates},
			wantErr: report.ErrDataAccess,
		},
		{
			name:    "missing evidence",
			args:    []string{"generate", "-t", "builtin:1", "-e", filepath.Join(dir, "missing.yaml"), "-o", dir, "--templates-dir", templates},
			wantErr: report.ErrDataAccess,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLocateCommand(t *testing.T) {
	templates := filepath.Join(t.TempDir(), "templates")

	stdout, err := execute(t, "locate", "-t", "builtin:3", "--templates-dir", templates)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"Section 2 - Evidence" found at paragraph 3`)

	_, err = execute(t, "locate", "-t", "builtin:3", "--heading", "Section", "--templates-dir", templates)
	assert.ErrorIs(t, err, report.ErrAnchorAmbiguous)
}

func TestTemplatesCommand(t *testing.T) {
	templates := filepath.Join(t.TempDir(), "templates")

	stdout, err := execute(t, "templates", "--extract", "--templates-dir", templates)
	require.NoError(t, err)
	assert.Contains(t, stdout, "builtin:1")
	assert.Contains(t, stdout, "Navy Blue")
	assert.Contains(t, stdout, "docx, docm, dotx, dotm")

	for _, name := range []string{"template_one.docx", "template_two.docx", "template_three.docx"} {
		_, err := os.Stat(filepath.Join(templates, name))
		assert.NoError(t, err, name)
	}
}

func TestRootCommand_InvalidLogging(t *testing.T) {
	_, err := execute(t, "templates", "--log-format", "xml")
	assert.ErrorContains(t, err, "invalid log format")

	_, err = execute(t, "templates", "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid log level")
}

// documentXML returns the saved main document part.
func documentXML(t *testing.T, path string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		return string(data)
	}
	t.Fatalf("%s has no word/document.xml", path)
	return ""
}
