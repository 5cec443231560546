// Package fundingdb holds all the migrations for the crowdfunding database
package fundingdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the crowdfunding database
var Migrations = migrate.NewMigrations()
