package migrations

import "embed"

// FS contains embedded SQLite migrations for the meeting manager store.
//
//go:embed *.sql
var FS embed.FS
