// Package delta computes per-entity sequential differences over
// time-stamped numeric observations and writes them back to the table.
//
// The pipeline is strictly linear:
//
//	Load -> GroupByEntity -> SortChronological -> ComputeDeltas -> BuildUpdates -> batch.Write
//
// Every run rebuilds its state from a full table scan and keeps nothing
// afterwards, so re-running after a partial failure is safe: deltas are a
// pure function of the stored values.
//
// # Edge cases
//
//   - The oldest observation of an entity has no baseline. Its delta is nil
//     and its delta cell is cleared, never set to zero.
//   - Only the first reference of the entity link cell is used.
//   - A row with an empty link or value cell aborts the run unless
//     SkipIncomplete is set, in which case it is skipped and left untouched.
//   - An unparseable timestamp aborts the run before anything is written.
//   - Observations with identical timestamps keep their load order.
package delta
