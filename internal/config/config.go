// Package config loads job files.
//
// A job file names the database and the arguments of one or both routines:
//
//	database: ./herd.db
//	deltas:
//	  table: Weights
//	  entity_field: Animal
//	  value_field: Weight
//	  date_field: Date
//	  delta_field: Change
//	  dry_run: true
//	dedupe:
//	  table: Animals
//	  field: Name
//	  mark_field: Duplicate
//
// Files ending in .yaml or .yml are decoded strictly with yaml.v3. Files
// ending in .cue are evaluated with CUE and must be concrete.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tabletools/internal/dedupe"
	"github.com/roach88/tabletools/internal/delta"
)

// Job is the content of a job file.
type Job struct {
	Database string         `yaml:"database,omitempty" json:"database,omitempty"`
	Deltas   *delta.Config  `yaml:"deltas,omitempty" json:"deltas,omitempty"`
	Dedupe   *dedupe.Config `yaml:"dedupe,omitempty" json:"dedupe,omitempty"`
}

// Format is a job file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// ErrUnknownFormat is returned for files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown job file format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("%w: %q (want .yaml, .yml or .cue)", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads, decodes and validates a job file.
func Load(path string) (*Job, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	job, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	if err := Validate(job); err != nil {
		return nil, fmt.Errorf("invalid job file %s: %w", path, err)
	}
	return job, nil
}

// Parse decodes a job without validating it. name is used in CUE error
// positions.
func Parse(data []byte, format Format, name string) (*Job, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatCUE:
		return parseCUE(data, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func parseYAML(data []byte) (*Job, error) {
	var job Job
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&job); err != nil {
		if errors.Is(err, io.EOF) {
			return &job, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &job, nil
}

func parseCUE(data []byte, name string) (*Job, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE job is not concrete: %w", err)
	}
	var job Job
	if err := v.Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	return &job, nil
}
