// SPDX-License-Identifier: Apache-2.0

// Package registry records produced reports with the case they belong to.
package registry

import (
	"context"
	"errors"
	"time"
)

// DisplayName is the name reports are registered under.
const DisplayName = "Forensic Report"

// Artifact is one produced report.
type Artifact struct {
	Case        string    `yaml:"case" json:"case"`
	RunID       string    `yaml:"run_id" json:"run_id"`
	DisplayName string    `yaml:"display_name" json:"display_name"`
	// Path is the report's location on the local file system.
	Path string `yaml:"path" json:"path"`
	// RelativePath is the report's name inside the case report directory.
	RelativePath string    `yaml:"relative_path" json:"relative_path"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	// Location is where the registry stored or indexed the report.
	Location string `yaml:"location,omitempty" json:"location,omitempty"`
}

// Registry records artifacts.
type Registry interface {
	Register(ctx context.Context, artifact Artifact) error
}

// Multi registers an artifact with every registry in order and joins the
// errors. A failing registry does not stop the others.
type Multi []Registry

func (m Multi) Register(ctx context.Context, artifact Artifact) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Register(ctx, artifact); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
