// Package migrations embeds the versioned SQL schema files.
//
// Files are named NNNNNN_name.up.sql / NNNNNN_name.down.sql and are
// applied in version order by internal/migrate.
package migrations

import "embed"

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
