// Package db embeds the SQL migrations for every supported store driver.
package db

import "embed"

// Migrations holds goose migrations under migrations/<dialect>.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "migrations/postgres"
	SQLiteDir   = "migrations/sqlite"
)
