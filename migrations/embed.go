// Package migrations embeds the versioned SQL schema applied by cmd/migrate
// and by the server on startup.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
