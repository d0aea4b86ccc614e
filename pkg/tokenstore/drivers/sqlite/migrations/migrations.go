// Package migrations embeds the token store schema for golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
