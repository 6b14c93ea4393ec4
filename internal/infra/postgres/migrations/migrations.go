// Package migrations holds the bun migrations for the checklist schema.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
