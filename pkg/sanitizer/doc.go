// Package sanitizer normalizes client-supplied booking data before
// validation and storage.
//
// All functions are idempotent and handle invalid input by returning empty
// values rather than errors:
//   - Phone numbers: converted to E.164 (+[country][number])
//   - Names, titles, notes: whitespace collapsed and trimmed
//   - Emails: trimmed and lowercased
//   - Keys: reduced to lowercase underscore tokens for lock and event ids
package sanitizer
