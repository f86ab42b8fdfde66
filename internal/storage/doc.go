// Package storage defines the persistence contracts of the meeting manager.
//
// The sqlite subpackage implements every contract against a single SQLite
// database. Handlers and modules depend on the narrow interfaces here so they
// can be exercised with in-memory fakes.
//
// # Error Types
//
//   - ErrNotFound: a requested record is missing.
//   - ErrAlreadyExists: a uniqueness-constrained record already exists.
package storage
