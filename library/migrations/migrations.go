package migrations

import "embed"

// MigrationFiles holds one goose directory per supported dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var MigrationFiles embed.FS
