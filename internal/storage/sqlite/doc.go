// Package sqlite implements the storage contracts on SQLite using the pure-Go
// modernc.org/sqlite driver and sqlx for struct scanning.
//
// Timestamps are stored as UTC Unix milliseconds. Calendar dates (assignment
// terms, specific-date schedule rules) are stored as ISO "YYYY-MM-DD" text.
// Singleton configuration tables are pinned to id = 1.
package sqlite
