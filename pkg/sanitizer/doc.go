// Package sanitizer normalizes free-text listing fields before validation and
// storage.
//
// All functions are idempotent: applying them twice gives the same result.
// Invalid input never errors; it is reduced to whatever printable text remains.
//
// Normalization includes:
//   - Single-line text (title, address, city): control characters dropped, runs
//     of whitespace collapsed to one space, ends trimmed
//   - Multi-line text (description): each line collapsed, blank line runs
//     squeezed to one, trailing whitespace removed
package sanitizer
