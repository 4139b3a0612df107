package testutil

import (
	"fmt"

	"github.com/roach88/tabletools/internal/table"
)

// WeightSchema is a weigh-in table: an Animal link, a Weight number, a Date,
// a Change number for deltas, a Tag text field and a Dup checkbox.
func WeightSchema() table.Schema {
	return table.Schema{
		ID:   "tblWeights",
		Name: "Weights",
		Fields: []table.Field{
			{ID: "fldAnimal", Name: "Animal", Type: table.FieldLink, LinkedTableID: "tblAnimals"},
			{ID: "fldWeight", Name: "Weight", Type: table.FieldNumber},
			{ID: "fldDate", Name: "Date", Type: table.FieldDate},
			{ID: "fldChange", Name: "Change", Type: table.FieldNumber},
			{ID: "fldTag", Name: "Tag", Type: table.FieldText},
			{ID: "fldDup", Name: "Dup", Type: table.FieldCheckbox},
		},
	}
}

// Link builds a link cell value.
func Link(ids ...string) []table.LinkedRecord {
	out := make([]table.LinkedRecord, len(ids))
	for i, id := range ids {
		out[i] = table.LinkedRecord{ID: table.RecordID(id), Name: "name-" + id}
	}
	return out
}

// WeighIn builds the cells of one weight row.
func WeighIn(animal, date string, weight float64) map[string]any {
	return map[string]any{
		"Animal": Link(animal),
		"Date":   date,
		"Weight": weight,
	}
}

// RecordID returns a zero-padded record id, rec0001 style.
func RecordID(n int) table.RecordID {
	return table.RecordID(fmt.Sprintf("rec%04d", n))
}
