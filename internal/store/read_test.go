package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabletools/internal/table"
)

func TestSelectRecords_EmptyTable(t *testing.T) {
	s := createTestStore(t)
	createWeightTables(t, s)

	records, err := s.SelectRecords(context.Background(), "Weights", nil)
	require.NoError(t, err)
	assert.NotNil(t, records, "should return empty slice, not nil")
	assert.Empty(t, records)
}

func TestSelectRecords_UnknownReferences(t *testing.T) {
	s := createTestStore(t)
	createWeightTables(t, s)
	ctx := context.Background()

	_, err := s.SelectRecords(ctx, "Nope", nil)
	assert.ErrorIs(t, err, table.ErrTableNotFound)

	_, err = s.SelectRecords(ctx, "Weights", []string{"Weight", "Height"})
	assert.ErrorIs(t, err, table.ErrFieldNotFound)
}

func TestSelectRecords_ProjectionAndOrder(t *testing.T) {
	s := createTestStore(t)
	schema := createWeightTables(t, s)
	ctx := context.Background()

	rows := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, map[string]any{"Weight": float64(i), "Date": "2024-01-01"})
	}
	ids, err := s.CreateRecords(ctx, "Weights", rows)
	require.NoError(t, err)

	records, err := s.SelectRecords(ctx, "Weights", []string{"Weight"})
	require.NoError(t, err)
	require.Len(t, records, 5)

	weight, _ := schema.Field("Weight")
	date, _ := schema.Field("Date")
	for i, rec := range records {
		assert.Equal(t, ids[i], rec.ID, "insertion order")
		n, ok := rec.Number(weight)
		require.True(t, ok)
		assert.Equal(t, float64(i), n)
		assert.Nil(t, rec.CellValue(date), "unselected field must not be populated")
	}

	again, err := s.SelectRecords(ctx, "Weights", []string{"Weight"})
	require.NoError(t, err)
	assert.Equal(t, records, again, "reads of an unchanged table are identical")
}

func TestSelectRecords_ByFieldID(t *testing.T) {
	s := createTestStore(t)
	schema := createWeightTables(t, s)
	ctx := context.Background()
	weight, _ := schema.Field("Weight")

	_, err := s.CreateRecords(ctx, string(schema.ID), []map[string]any{{string(weight.ID): 7.25}})
	require.NoError(t, err)

	records, err := s.SelectRecords(ctx, string(schema.ID), []string{string(weight.ID)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "7.25", records[0].CellValueAsString(weight))
}

func TestSelectRecords_ResolvesLinkNames(t *testing.T) {
	s := createTestStore(t)
	schema := createWeightTables(t, s)
	ctx := context.Background()

	animals, err := s.CreateRecords(ctx, "Animals", []map[string]any{{"Name": "Bessie"}, {"Name": "Daisy"}})
	require.NoError(t, err)
	_, err = s.CreateRecords(ctx, "Weights", []map[string]any{
		{"Animal": []any{string(animals[1]), string(animals[0])}, "Weight": 1.0},
		{"Weight": 2.0},
	})
	require.NoError(t, err)

	records, err := s.SelectRecords(ctx, "Weights", []string{"Animal"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	animal, _ := schema.Field("Animal")
	first, ok := records[0].FirstLinkedID(animal)
	require.True(t, ok)
	assert.Equal(t, animals[1], first, "first reference wins")
	assert.Equal(t, "Daisy, Bessie", records[0].CellValueAsString(animal))

	_, ok = records[1].FirstLinkedID(animal)
	assert.False(t, ok)
}

func TestTables_ListsByName(t *testing.T) {
	s := createTestStore(t)
	createWeightTables(t, s)

	schemas, err := s.Tables(context.Background())
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, "Animals", schemas[0].Name)
	assert.Equal(t, "Weights", schemas[1].Name)
	assert.Len(t, schemas[1].Fields, 4)
}

func TestSchema_ResolvesIDBeforeName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.CreateTable(ctx, "Animals")
	require.NoError(t, err)
	// A table named like the first table's id must not shadow it.
	_, err = s.CreateTable(ctx, string(first.ID))
	require.NoError(t, err)

	got, err := s.Schema(ctx, string(first.ID))
	require.NoError(t, err)
	assert.Equal(t, "Animals", got.Name)
}
