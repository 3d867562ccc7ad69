package migrations

import "embed"

// FS contains embedded SQLite migrations for outreach storage.
//
//go:embed *.sql
var FS embed.FS
