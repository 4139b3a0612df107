// Package dedupe finds rows that share a value in one field and ticks a
// checkbox on each of them.
//
// Values are compared by their string rendering, NFC-normalised so that
// composed and decomposed spellings of the same text collide. Every row of a
// duplicated value is marked, including the first occurrence. Rows are never
// unmarked: a checkbox ticked by an earlier run stays ticked.
package dedupe
