package playermigrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the player module schema.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
