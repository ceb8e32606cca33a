// Package sanitizer normalizes free-text reservation input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result. Invalid input
// yields empty strings or empty slices rather than errors; validation happens afterwards.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim, drop control characters
//   - Emails: trim and lowercase
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
