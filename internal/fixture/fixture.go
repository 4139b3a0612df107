// Package fixture seeds a store from a YAML description of tables, fields
// and records.
//
//	tables:
//	  - name: Animals
//	    fields:
//	      - {name: Name, type: text}
//	    records:
//	      - {Name: Bessie}
//	  - name: Weights
//	    fields:
//	      - {name: Animal, type: link, links: Animals}
//	      - {name: Weight, type: number}
//	      - {name: Date, type: date}
//	    records:
//	      - {Animal: Bessie, Weight: 410, Date: "2024-01-01"}
//
// Link cells name records of the linked table by the value of that table's
// first field. Tables are created in file order, so a link may only point at
// a table declared earlier.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tabletools/internal/table"
)

// Fixture is a parsed fixture file.
type Fixture struct {
	Tables []Table `yaml:"tables"`
}

// Table declares one table.
type Table struct {
	Name    string           `yaml:"name"`
	Fields  []Field          `yaml:"fields"`
	Records []map[string]any `yaml:"records,omitempty"`
}

// Field declares one field.
type Field struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Links string `yaml:"links,omitempty"`
}

// ErrInvalidFixture is wrapped by every structural problem in a fixture.
var ErrInvalidFixture = errors.New("invalid fixture")

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a fixture. Unknown keys are rejected.
func Parse(data []byte) (*Fixture, error) {
	var fx Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := fx.check(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) check() error {
	if len(fx.Tables) == 0 {
		return fmt.Errorf("%w: no tables", ErrInvalidFixture)
	}
	declared := make(map[string]bool)
	for _, t := range fx.Tables {
		if t.Name == "" {
			return fmt.Errorf("%w: table without a name", ErrInvalidFixture)
		}
		if declared[t.Name] {
			return fmt.Errorf("%w: table %q declared twice", ErrInvalidFixture, t.Name)
		}
		if len(t.Fields) == 0 {
			return fmt.Errorf("%w: table %q has no fields", ErrInvalidFixture, t.Name)
		}
		for _, f := range t.Fields {
			ft, err := table.ParseFieldType(f.Type)
			if err != nil {
				return fmt.Errorf("%w: table %q field %q: %v", ErrInvalidFixture, t.Name, f.Name, err)
			}
			if ft == table.FieldLink && !declared[f.Links] {
				return fmt.Errorf("%w: table %q field %q links to undeclared table %q", ErrInvalidFixture, t.Name, f.Name, f.Links)
			}
			if ft != table.FieldLink && f.Links != "" {
				return fmt.Errorf("%w: table %q field %q: only link fields take links", ErrInvalidFixture, t.Name, f.Name)
			}
		}
		declared[t.Name] = true
	}
	return nil
}

// RecordCount returns the number of records across all tables.
func (fx *Fixture) RecordCount() int {
	n := 0
	for _, t := range fx.Tables {
		n += len(t.Records)
	}
	return n
}
