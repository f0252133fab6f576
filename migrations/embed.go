// Package migrations embeds the SQL schema migrations. The statements are
// written to run unchanged on PostgreSQL and SQLite.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
