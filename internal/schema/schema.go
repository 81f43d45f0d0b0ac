// SPDX-License-Identifier: Apache-2.0

// Package schema validates settings files and evidence manifests against
// embedded CUE definitions.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Definitions available for validation.
const (
	Settings = "#Settings"
	Manifest = "#Manifest"
)

// ErrInvalid is returned when a value does not satisfy its definition.
var ErrInvalid = errors.New("schema validation failed")

//go:embed schema.cue
var source string

// Validator checks Go values against the embedded definitions. It is safe
// for concurrent use.
type Validator struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(source, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{ctx: ctx, root: root}, nil
}

// Validate encodes value as JSON and unifies it with the named definition.
// The result must be concrete.
func (v *Validator) Validate(definition string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", definition, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.root.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("unknown schema definition %q", definition)
	}
	val := v.ctx.CompileBytes(data, cue.Filename(definition+".json"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("compile value for %s: %w", definition, err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.Details(err, nil))
	}
	return nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Validate checks value against definition using a shared Validator.
func Validate(definition string, value any) error {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = New()
	})
	if defaultErr != nil {
		return defaultErr
	}
	return defaultValidator.Validate(definition, value)
}
