// Package migrations embeds the goose SQL migration files so the server
// binary can apply them without shipping the files separately.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
