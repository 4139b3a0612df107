package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/tabletools/internal/table"
)

// createTestStore creates a new store in a temp directory with sequential ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(NewSequentialGenerator()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createWeightTables builds an Animals table (Name) and a Weights table
// (Animal link, Weight, Date, Change) and returns the Weights schema.
func createWeightTables(t *testing.T, s *Store) table.Schema {
	t.Helper()
	ctx := context.Background()

	if _, err := s.CreateTable(ctx, "Animals"); err != nil {
		t.Fatalf("CreateTable(Animals) failed: %v", err)
	}
	if _, err := s.CreateField(ctx, "Animals", "Name", table.FieldText, ""); err != nil {
		t.Fatalf("CreateField(Name) failed: %v", err)
	}
	if _, err := s.CreateTable(ctx, "Weights"); err != nil {
		t.Fatalf("CreateTable(Weights) failed: %v", err)
	}
	fields := []struct {
		name   string
		ft     table.FieldType
		linked string
	}{
		{"Animal", table.FieldLink, "Animals"},
		{"Weight", table.FieldNumber, ""},
		{"Date", table.FieldDate, ""},
		{"Change", table.FieldNumber, ""},
	}
	for _, f := range fields {
		if _, err := s.CreateField(ctx, "Weights", f.name, f.ft, f.linked); err != nil {
			t.Fatalf("CreateField(%s) failed: %v", f.name, err)
		}
	}

	schema, err := s.Schema(ctx, "Weights")
	if err != nil {
		t.Fatalf("Schema(Weights) failed: %v", err)
	}
	return schema
}
