// Package migrations embeds the Postgres schema migrations so a deployed
// binary carries its own schema and needs no migration files on disk.
package migrations

import (
	"embed"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var files embed.FS

// Source returns a migration source driver over the embedded SQL files
func Source() (source.Driver, error) {
	return iofs.New(files, ".")
}
