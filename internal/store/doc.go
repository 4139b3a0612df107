// Package store provides a SQLite-backed table store.
//
// The store holds any number of tables. Each table has typed fields and
// records; cell values are stored one row per (record, field) as JSON text,
// and an empty cell has no row at all.
//
// # Guarantees
//
//   - Reads are full scans in insertion order (ORDER BY rowid, id), so two
//     reads of an unchanged table return identical slices.
//   - CreateRecords and UpdateRecords accept at most table.MaxBatchSize
//     records per call and apply each call in one transaction: a call either
//     applies completely or not at all. Nothing spans calls.
//   - Table and field references resolve by id first, then by name.
//   - Link cells store record ids; display names are resolved at read time
//     from the first field of the linked table.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
