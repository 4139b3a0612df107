package delta

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabletools/internal/batch"
	"github.com/roach88/tabletools/internal/table"
	"github.com/roach88/tabletools/internal/testutil"
)

func exampleTable() *testutil.MemTable {
	return testutil.NewMemTable(testutil.WeightSchema()).
		Add("recJan", testutil.WeighIn("A", "2024-01-01", 10.0)).
		Add("recFeb", testutil.WeighIn("A", "2024-02-01", 12.5)).
		Add("recMar", testutil.WeighIn("A", "2024-03-01", 12.0))
}

func TestRun_ExampleSeries(t *testing.T) {
	m := exampleTable()
	// A stale value on the oldest row must be cleared.
	require.NoError(t, m.UpdateRecords(context.Background(), "Weights", []table.RecordUpdate{
		{ID: "recJan", Fields: map[table.FieldID]any{"fldChange": 99.0}},
	}))
	m.UpdateCalls = nil

	report, err := Run(context.Background(), m, weightConfig())
	require.NoError(t, err)

	assert.Equal(t, -0.5, m.Cell("recMar", "Change"))
	assert.Equal(t, 2.5, m.Cell("recFeb", "Change"))
	assert.Nil(t, m.Cell("recJan", "Change"))

	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 1, report.Groups)
	assert.Equal(t, 3, report.Updates)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 1, report.Chunks)

	require.Len(t, m.UpdateCalls, 1)
	call := m.UpdateCalls[0]
	require.Len(t, call, 3)
	last := call[2]
	assert.Equal(t, table.RecordID("recJan"), last.ID)
	v, present := last.Fields["fldChange"]
	assert.True(t, present, "oldest record still gets an explicit update")
	assert.Nil(t, v)
}

func TestRun_SingleObservationEntities(t *testing.T) {
	m := testutil.NewMemTable(testutil.WeightSchema()).
		Add("rec1", testutil.WeighIn("A", "2024-01-01", 10)).
		Add("rec2", testutil.WeighIn("B", "2024-01-01", 20))

	report, err := Run(context.Background(), m, weightConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updates)
	require.Len(t, m.UpdateCalls, 1)
	for _, u := range m.UpdateCalls[0] {
		assert.Nil(t, u.Fields["fldChange"])
	}
}

func bigTable(entities, perEntity int) *testutil.MemTable {
	m := testutil.NewMemTable(testutil.WeightSchema())
	n := 0
	for day := 1; day <= perEntity; day++ {
		for e := 0; e < entities; e++ {
			n++
			date := fmt.Sprintf("2024-01-%02d", day)
			m.Add(testutil.RecordID(n), testutil.WeighIn(fmt.Sprintf("ent%02d", e), date, float64(day*10+e)))
		}
	}
	return m
}

func TestRun_120UpdatesWrittenAs50_50_20(t *testing.T) {
	m := bigTable(4, 30)

	report, err := Run(context.Background(), m, weightConfig())
	require.NoError(t, err)

	require.Len(t, m.UpdateCalls, 3)
	assert.Len(t, m.UpdateCalls[0], 50)
	assert.Len(t, m.UpdateCalls[1], 50)
	assert.Len(t, m.UpdateCalls[2], 20)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 120, report.Written)

	seen := make(map[table.RecordID]int)
	defined := 0
	for _, call := range m.UpdateCalls {
		for _, u := range call {
			seen[u.ID]++
			if u.Fields["fldChange"] != nil {
				defined++
			}
		}
	}
	assert.Len(t, seen, 120)
	for id, n := range seen {
		assert.Equal(t, 1, n, "%s written more than once", id)
	}
	assert.Equal(t, 120-4, defined, "one undefined delta per entity")
}

func TestRun_Idempotent(t *testing.T) {
	m := bigTable(3, 9)

	_, err := Run(context.Background(), m, weightConfig())
	require.NoError(t, err)
	first := m.UpdateCalls
	m.UpdateCalls = nil

	_, err = Run(context.Background(), m, weightConfig())
	require.NoError(t, err)
	assert.Equal(t, first, m.UpdateCalls)
}

func TestRun_WriteFailureLeavesCommittedChunks(t *testing.T) {
	m := bigTable(4, 30)
	m.FailUpdateAt = 2

	report, err := Run(context.Background(), m, weightConfig())
	require.Error(t, err)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 1, we.ChunkIndex)
	assert.Equal(t, 50, we.Committed)
	assert.Equal(t, 70, we.Remaining)
	assert.True(t, batch.IsWriteError(err))

	require.NotNil(t, report)
	assert.Equal(t, 50, report.Written)
	assert.Len(t, m.UpdateCalls, 2, "no retry, no further chunks")

	committed := m.UpdateCalls[0][0]
	assert.Equal(t, committed.Fields["fldChange"], m.Cell(committed.ID, "Change"))
	failed := m.UpdateCalls[1][0]
	if failed.Fields["fldChange"] != nil {
		assert.Nil(t, m.Cell(failed.ID, "Change"), "failed chunk must not be applied")
	}
}

func TestRun_InvalidDateAbortsBeforeWriting(t *testing.T) {
	m := exampleTable().
		Add("recBad", testutil.WeighIn("B", "not a date", 1))

	_, err := Run(context.Background(), m, weightConfig())
	require.Error(t, err)
	assert.True(t, IsInvalidDate(err))
	assert.Empty(t, m.UpdateCalls)
}

func TestRun_OverflowingDeltaAbortsBeforeWriting(t *testing.T) {
	m := exampleTable().
		Add("recLow", testutil.WeighIn("B", "2024-01-01", -1.7e308)).
		Add("recHigh", testutil.WeighIn("B", "2024-02-01", 1.7e308))

	_, err := Run(context.Background(), m, weightConfig())
	require.Error(t, err)
	assert.True(t, IsNonFiniteDelta(err))
	var ne *NonFiniteDeltaError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, table.RecordID("recHigh"), ne.RecordID)
	assert.Equal(t, -1.7e308, ne.Older)
	assert.Empty(t, m.UpdateCalls)
}

func TestRun_MissingEntityAbortsBeforeWriting(t *testing.T) {
	m := exampleTable().
		Add("recOrphan", map[string]any{"Weight": 3.0, "Date": "2024-01-01"})

	_, err := Run(context.Background(), m, weightConfig())
	require.Error(t, err)
	assert.True(t, IsMissingEntityReference(err))
	assert.Empty(t, m.UpdateCalls)
}

func TestRun_SkipIncomplete(t *testing.T) {
	m := exampleTable().
		Add("recOrphan", map[string]any{"Weight": 3.0, "Date": "2024-01-01", "Change": 5.0})
	cfg := weightConfig()
	cfg.SkipIncomplete = true

	report, err := Run(context.Background(), m, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Records)
	assert.Equal(t, 3, report.Updates)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 5.0, m.Cell("recOrphan", "Change"), "skipped rows are left untouched")
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	m := exampleTable()

	report, err := Run(context.Background(), m, weightConfig(), WithDryRun(true))
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.Updates)
	assert.Equal(t, 0, report.Written)
	assert.Empty(t, m.UpdateCalls)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, table.RecordID("recMar"), report.Rows[0].RecordID)
}

func TestRun_DryRunFromConfig(t *testing.T) {
	m := exampleTable()
	cfg := weightConfig()
	cfg.DryRun = true

	report, err := Run(context.Background(), m, cfg)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Empty(t, m.UpdateCalls)
}

func TestRun_ChunkObserverAndSize(t *testing.T) {
	m := bigTable(2, 5)
	var events []batch.ChunkEvent

	_, err := Run(context.Background(), m, weightConfig(),
		WithChunkSize(4),
		WithChunkObserver(func(e batch.ChunkEvent) { events = append(events, e) }),
	)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Len(t, m.UpdateCalls, 3)
}

func TestCompute_GroupsInEntityOrder(t *testing.T) {
	rows, groups, err := Compute([]Observation{
		{RecordID: "b1", EntityID: "B", Timestamp: "2024-01-01", Value: 1},
		{RecordID: "a1", EntityID: "A", Timestamp: "2024-01-01", Value: 1},
		{RecordID: "a2", EntityID: "A", Timestamp: "2024-01-02", Value: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, groups)
	require.Len(t, rows, 3)
	assert.Equal(t, table.RecordID("a2"), rows[0].RecordID)
	assert.Equal(t, 2.0, *rows[0].Delta)
	assert.Equal(t, table.RecordID("a1"), rows[1].RecordID)
	assert.Equal(t, table.RecordID("b1"), rows[2].RecordID)
}
