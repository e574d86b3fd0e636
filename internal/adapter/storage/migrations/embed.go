package migrations

import "embed"

// FS contains the listing schema migrations. Statements are portable between
// MySQL and SQLite.
//
//go:embed *.sql
var FS embed.FS
