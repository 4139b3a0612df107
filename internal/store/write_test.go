package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabletools/internal/table"
)

func TestCreateTable_DuplicateName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	schema, err := s.CreateTable(ctx, "Animals")
	require.NoError(t, err)
	assert.Equal(t, table.TableID("tbl0001"), schema.ID)

	_, err = s.CreateTable(ctx, "Animals")
	assert.ErrorIs(t, err, table.ErrDuplicateName)
}

func TestCreateField_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.CreateTable(ctx, "Weights")
	require.NoError(t, err)

	_, err = s.CreateField(ctx, "Weights", "Animal", table.FieldLink, "")
	assert.ErrorContains(t, err, "need a linked table")

	_, err = s.CreateField(ctx, "Weights", "Weight", table.FieldNumber, "Weights")
	assert.ErrorContains(t, err, "only link fields")

	_, err = s.CreateField(ctx, "Missing", "Weight", table.FieldNumber, "")
	assert.ErrorIs(t, err, table.ErrTableNotFound)

	_, err = s.CreateField(ctx, "Weights", "Weight", table.FieldType("money"), "")
	assert.Error(t, err)

	_, err = s.CreateField(ctx, "Weights", "Weight", table.FieldNumber, "")
	require.NoError(t, err)
	_, err = s.CreateField(ctx, "Weights", "Weight", table.FieldNumber, "")
	assert.ErrorIs(t, err, table.ErrDuplicateName)
}

func TestCreateRecords_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createWeightTables(t, s)

	animals, err := s.CreateRecords(ctx, "Animals", []map[string]any{{"Name": "Bessie"}})
	require.NoError(t, err)
	require.Len(t, animals, 1)

	ids, err := s.CreateRecords(ctx, "Weights", []map[string]any{
		{"Animal": []any{string(animals[0])}, "Weight": 10, "Date": "2024-01-01"},
		{"Animal": string(animals[0]), "Weight": 12.5, "Date": "2024-02-01"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	n, err := s.CountRecords(ctx, "Weights")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCreateRecords_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createWeightTables(t, s)

	_, err := s.CreateRecords(ctx, "Weights", []map[string]any{
		{"Weight": 1.0},
		{"Weight": "not a number"},
	})
	require.ErrorIs(t, err, table.ErrInvalidValue)

	n, err := s.CountRecords(ctx, "Weights")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "failed batch must not leave partial rows")
}

func TestCreateRecords_UnknownLinkTarget(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createWeightTables(t, s)

	_, err := s.CreateRecords(ctx, "Weights", []map[string]any{{"Animal": "recMissing"}})
	assert.ErrorIs(t, err, table.ErrRecordNotFound)
}

func TestCreateRecords_BatchTooLarge(t *testing.T) {
	s := createTestStore(t)
	createWeightTables(t, s)

	rows := make([]map[string]any, table.MaxBatchSize+1)
	for i := range rows {
		rows[i] = map[string]any{}
	}
	_, err := s.CreateRecords(context.Background(), "Weights", rows)
	assert.ErrorIs(t, err, table.ErrBatchTooLarge)
}

func TestUpdateRecords_SetAndClear(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	schema := createWeightTables(t, s)
	change, _ := schema.Field("Change")

	ids, err := s.CreateRecords(ctx, "Weights", []map[string]any{{"Weight": 1.0}, {"Weight": 2.0}})
	require.NoError(t, err)

	err = s.UpdateRecords(ctx, "Weights", []table.RecordUpdate{
		{ID: ids[0], Fields: map[table.FieldID]any{change.ID: -0.5}},
		{ID: ids[1], Fields: map[table.FieldID]any{change.ID: 2.5}},
	})
	require.NoError(t, err)

	records, err := s.SelectRecords(ctx, "Weights", []string{"Change"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	got, ok := records[0].Number(change)
	require.True(t, ok)
	assert.Equal(t, -0.5, got)

	err = s.UpdateRecords(ctx, "Weights", []table.RecordUpdate{
		{ID: ids[0], Fields: map[table.FieldID]any{change.ID: nil}},
	})
	require.NoError(t, err)

	records, err = s.SelectRecords(ctx, "Weights", []string{"Change"})
	require.NoError(t, err)
	_, ok = records[0].Number(change)
	assert.False(t, ok, "nil update must clear the cell")
	assert.Equal(t, "2.5", records[1].CellValueAsString(change))
}

func TestUpdateRecords_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	schema := createWeightTables(t, s)
	change, _ := schema.Field("Change")

	ids, err := s.CreateRecords(ctx, "Weights", []map[string]any{{"Weight": 1.0}})
	require.NoError(t, err)
	animals, err := s.CreateRecords(ctx, "Animals", []map[string]any{{"Name": "Bessie"}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		updates []table.RecordUpdate
		want    error
	}{
		{
			name:    "unknown field id",
			updates: []table.RecordUpdate{{ID: ids[0], Fields: map[table.FieldID]any{"fldNope": 1.0}}},
			want:    table.ErrFieldNotFound,
		},
		{
			name:    "field name is not an id",
			updates: []table.RecordUpdate{{ID: ids[0], Fields: map[table.FieldID]any{"Change": 1.0}}},
			want:    table.ErrFieldNotFound,
		},
		{
			name:    "unknown record",
			updates: []table.RecordUpdate{{ID: "recNope", Fields: map[table.FieldID]any{change.ID: 1.0}}},
			want:    table.ErrRecordNotFound,
		},
		{
			name:    "record from another table",
			updates: []table.RecordUpdate{{ID: animals[0], Fields: map[table.FieldID]any{change.ID: 1.0}}},
			want:    table.ErrRecordNotFound,
		},
		{
			name:    "wrong value type",
			updates: []table.RecordUpdate{{ID: ids[0], Fields: map[table.FieldID]any{change.ID: "1.0"}}},
			want:    table.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateRecords(ctx, "Weights", tt.updates)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestUpdateRecords_AllOrNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	schema := createWeightTables(t, s)
	change, _ := schema.Field("Change")

	ids, err := s.CreateRecords(ctx, "Weights", []map[string]any{{"Weight": 1.0}})
	require.NoError(t, err)

	err = s.UpdateRecords(ctx, "Weights", []table.RecordUpdate{
		{ID: ids[0], Fields: map[table.FieldID]any{change.ID: 3.0}},
		{ID: "recNope", Fields: map[table.FieldID]any{change.ID: 4.0}},
	})
	require.Error(t, err)

	records, err := s.SelectRecords(ctx, "Weights", nil)
	require.NoError(t, err)
	_, ok := records[0].Number(change)
	assert.False(t, ok, "first update must be rolled back with the failing one")
}

func TestUpdateRecords_BatchTooLarge(t *testing.T) {
	s := createTestStore(t)
	createWeightTables(t, s)

	updates := make([]table.RecordUpdate, table.MaxBatchSize+1)
	for i := range updates {
		updates[i] = table.RecordUpdate{ID: table.RecordID(fmt.Sprintf("rec%d", i))}
	}
	err := s.UpdateRecords(context.Background(), "Weights", updates)
	assert.ErrorIs(t, err, table.ErrBatchTooLarge)
}
