package embedded

import "embed"

// MigrationsDir is the directory in Migrations that holds the goose SQL
// migrations.
const MigrationsDir = "migrations"

// Migrations holds all database migrations in goose format.
//
//go:embed migrations/*.sql
var Migrations embed.FS
