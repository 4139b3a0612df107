// Package table defines the record model shared by the table store and the
// record-processing routines.
//
// A table is a set of records; each record holds typed cells keyed by field
// id. Field types mirror what a spreadsheet-style database offers:
//   - text: string
//   - number: float64
//   - date: string as entered (parsed by consumers)
//   - checkbox: bool
//   - link: []LinkedRecord, references into another table
//
// Identifiers are opaque strings. Fields and tables may be referenced either
// by id or by name; Schema.Field resolves ids first so that a field named
// like another field's id can never shadow it.
package table
