package migrations

import "embed"

// FS contains embedded SQLite migrations for event item storage.
//
//go:embed *.sql
var FS embed.FS
