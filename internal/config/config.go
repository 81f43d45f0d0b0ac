// SPDX-License-Identifier: Apache-2.0

// Package config loads report settings from a YAML file, a .env file and
// WITNESS_REPORT_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/witnessreport/witness-report/internal/evidence"
	"github.com/witnessreport/witness-report/internal/evidence/feeds"
	"github.com/witnessreport/witness-report/internal/registry"
	"github.com/witnessreport/witness-report/internal/report"
	"github.com/witnessreport/witness-report/internal/schema"
	"github.com/witnessreport/witness-report/internal/template"
)

const (
	EnvPrefix     = "WITNESS_REPORT_"
	DefaultColour = "Navy Blue"
	// DefaultDebounceMS is how long the watcher waits for evidence changes
	// to settle before regenerating.
	DefaultDebounceMS = 500
)

type Settings struct {
	Template     string    `yaml:"template" json:"template"`
	Heading      string    `yaml:"heading,omitempty" json:"heading,omitempty"`
	Colour       string    `yaml:"colour,omitempty" json:"colour,omitempty"`
	Style        string    `yaml:"style,omitempty" json:"style,omitempty"`
	Extension    string    `yaml:"extension,omitempty" json:"extension,omitempty"`
	OutputDir    string    `yaml:"output_dir" json:"output_dir"`
	Categories   []string  `yaml:"categories,omitempty" json:"categories,omitempty"`
	TemplatesDir string    `yaml:"templates_dir,omitempty" json:"templates_dir,omitempty"`
	DocumentName string    `yaml:"document_name,omitempty" json:"document_name,omitempty"`
	Evidence     Evidence  `yaml:"evidence" json:"evidence"`
	Registry     *Registry `yaml:"registry,omitempty" json:"registry,omitempty"`
	Watch        *Watch    `yaml:"watch,omitempty" json:"watch,omitempty"`
}

type Evidence struct {
	Path   string `yaml:"path" json:"path"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Hashes bool   `yaml:"hashes,omitempty" json:"hashes,omitempty"`
}

type Registry struct {
	// Local keeps a reports.yaml index next to the reports. Defaults to on.
	Local *bool     `yaml:"local,omitempty" json:"local,omitempty"`
	S3    *S3Config `yaml:"s3,omitempty" json:"s3,omitempty"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Region    string `yaml:"region,omitempty" json:"region,omitempty"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl,omitempty" json:"use_ssl,omitempty"`
}

type Watch struct {
	DebounceMS int `yaml:"debounce_ms,omitempty" json:"debounce_ms,omitempty"`
}

// Load reads the settings file at path (optional when the environment
// supplies everything), applies environment overrides, then overrides such
// as command line flags, then defaults, and validates the result.
func Load(path string, overrides ...func(*Settings)) (*Settings, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	s := &Settings{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}
	s.applyEnv()
	for _, o := range overrides {
		o(s)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadEnv loads .env files into the process environment without replacing
// variables that are already set. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func (s *Settings) applyEnv() {
	s.Template = firstNonEmpty(env("TEMPLATE"), s.Template)
	s.Heading = firstNonEmpty(env("HEADING"), s.Heading)
	s.Colour = firstNonEmpty(env("COLOUR"), s.Colour)
	s.Style = firstNonEmpty(env("STYLE"), s.Style)
	s.Extension = firstNonEmpty(env("EXTENSION"), s.Extension)
	s.OutputDir = firstNonEmpty(env("OUTPUT_DIR"), s.OutputDir)
	s.TemplatesDir = firstNonEmpty(env("TEMPLATES_DIR"), s.TemplatesDir)
	s.Evidence.Path = firstNonEmpty(env("EVIDENCE"), s.Evidence.Path)
	s.Evidence.Format = firstNonEmpty(env("EVIDENCE_FORMAT"), s.Evidence.Format)
	if v, ok := envBool("HASHES"); ok {
		s.Evidence.Hashes = v
	}
	if raw := env("CATEGORIES"); raw != "" {
		s.Categories = splitList(raw)
	}

	endpoint := env("S3_ENDPOINT")
	if endpoint == "" {
		return
	}
	if s.Registry == nil {
		s.Registry = &Registry{}
	}
	cur := s.Registry.S3
	if cur == nil {
		cur = &S3Config{}
	}
	s.Registry.S3 = &S3Config{
		Endpoint:  endpoint,
		Region:    firstNonEmpty(env("S3_REGION"), cur.Region),
		Bucket:    firstNonEmpty(env("S3_BUCKET"), cur.Bucket),
		AccessKey: firstNonEmpty(env("S3_ACCESS_KEY"), cur.AccessKey, strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(env("S3_SECRET_KEY"), cur.SecretKey, strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		UseSSL:    cur.UseSSL,
	}
	if v, ok := envBool("S3_USE_SSL"); ok {
		s.Registry.S3.UseSSL = v
	}
}

func (s *Settings) applyDefaults() {
	if s.Colour == "" {
		s.Colour = DefaultColour
	}
}

// Validate checks the settings against the settings schema.
func (s *Settings) Validate() error {
	if err := schema.Validate(schema.Settings, s); err != nil {
		return fmt.Errorf("%w: %w", report.ErrConfigValidation, err)
	}
	return nil
}

// ReportConfig builds the run configuration for an opened template. The
// template's suggested heading and extension fill in unset values.
func (s *Settings) ReportConfig(tpl *template.Template, categories []evidence.TagCategory) (report.Config, error) {
	colour, err := report.ResolveColour(s.Colour)
	if err != nil {
		return report.Config{}, fmt.Errorf("%w: %w", report.ErrConfigValidation, err)
	}
	variant, err := report.ParseTableVariant(s.Style)
	if err != nil {
		return report.Config{}, fmt.Errorf("%w: %w", report.ErrConfigValidation, err)
	}
	cfg := report.Config{
		Document:      tpl.Document,
		HeadingText:   firstNonEmpty(s.Heading, tpl.Heading),
		TableColour:   colour,
		Categories:    categories,
		FileExtension: firstNonEmpty(s.Extension, tpl.Extension),
		OutputDir:     s.OutputDir,
		Variant:       variant,
		DocumentName:  firstNonEmpty(s.DocumentName, tpl.Name),
		Exhibits:      tpl.Exhibits,
	}
	return cfg, cfg.Validate()
}

// Source describes the configured evidence location.
func (s *Settings) Source() evidence.EvidenceSource {
	return evidence.EvidenceSource{
		Path:   s.Evidence.Path,
		Format: s.Evidence.Format,
		ID:     s.Evidence.Path,
	}
}

// OpenFeed loads the evidence feed. The output directory is never read as
// evidence, so earlier reports do not show up as a tag category.
func (s *Settings) OpenFeed(ctx context.Context) (evidence.Feed, error) {
	feed, err := feeds.DefaultPipeline(s.Evidence.Hashes, s.OutputDir).Open(ctx, s.Source())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrDataAccess, err)
	}
	return feed, nil
}

// SelectCategories returns the configured categories in order, or every
// category of the feed when none are configured.
func (s *Settings) SelectCategories(ctx context.Context, feed evidence.Feed) ([]evidence.TagCategory, error) {
	if len(s.Categories) == 0 {
		cats, err := feed.Categories(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list tag categories: %w", report.ErrDataAccess, err)
		}
		return cats, nil
	}
	out := make([]evidence.TagCategory, 0, len(s.Categories))
	for _, name := range s.Categories {
		out = append(out, evidence.TagCategory{Name: name})
	}
	return out, nil
}

// Registries builds the configured report registries.
func (s *Settings) Registries(logger *slog.Logger) (registry.Registry, error) {
	var regs registry.Multi
	if s.Registry == nil || s.Registry.Local == nil || *s.Registry.Local {
		local, err := registry.NewFileRegistry(s.OutputDir)
		if err != nil {
			return nil, err
		}
		regs = append(regs, local)
	}
	if s.Registry != nil && s.Registry.S3 != nil {
		c := s.Registry.S3
		remote, err := registry.NewS3Registry(registry.S3Config{
			Endpoint:  c.Endpoint,
			Region:    c.Region,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Bucket:    c.Bucket,
			UseSSL:    c.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", report.ErrConfigValidation, err)
		}
		if logger != nil {
			logger.Info("s3 registry enabled", "endpoint", c.Endpoint, "bucket", c.Bucket)
		}
		regs = append(regs, remote)
	}
	if len(regs) == 0 {
		return nil, nil
	}
	return regs, nil
}

// Debounce returns the watcher debounce in milliseconds.
func (s *Settings) Debounce() int {
	if s.Watch == nil || s.Watch.DebounceMS <= 0 {
		return DefaultDebounceMS
	}
	return s.Watch.DebounceMS
}

func envBool(name string) (bool, bool) {
	raw := env(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
