package delta

import (
	"slices"

	"github.com/roach88/tabletools/internal/table"
)

// Config names the table and fields a run operates on. Each value is a
// table or field id or name.
type Config struct {
	Table       string `yaml:"table" json:"table" validate:"required,trimmed"`
	EntityField string `yaml:"entity_field" json:"entity_field" validate:"required,trimmed"`
	ValueField  string `yaml:"value_field" json:"value_field" validate:"required,trimmed"`
	DateField   string `yaml:"date_field" json:"date_field" validate:"required,trimmed"`
	DeltaField  string `yaml:"delta_field" json:"delta_field" validate:"required,trimmed"`

	// SkipIncomplete skips rows with an empty link or value cell instead of
	// failing the run.
	SkipIncomplete bool `yaml:"skip_incomplete,omitempty" json:"skip_incomplete,omitempty"`

	// DryRun computes deltas without writing them. WithDryRun has the
	// same effect.
	DryRun bool `yaml:"dry_run,omitempty" json:"dry_run,omitempty"`
}

// EntityID identifies the linked record that owns a series.
type EntityID string

// Observation is one input row.
type Observation struct {
	RecordID  table.RecordID `json:"record_id"`
	EntityID  EntityID       `json:"entity_id"`
	Timestamp string         `json:"timestamp"`
	Value     float64        `json:"value"`
}

// OrderedObservation is an observation with its computed delta. Delta is nil
// for the oldest observation of a group.
type OrderedObservation struct {
	Observation
	Delta *float64 `json:"delta"`
}

// Groups maps each entity to its observations.
type Groups map[EntityID][]Observation

// Keys returns the entity ids in ascending order.
func (g Groups) Keys() []EntityID {
	keys := make([]EntityID, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the total number of observations across groups.
func (g Groups) Len() int {
	n := 0
	for _, obs := range g {
		n += len(obs)
	}
	return n
}
