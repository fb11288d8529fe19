// Package migrations embeds the goose SQL migrations for the trips and
// bookings schema. cmd/api applies them at startup when AUTO_MIGRATE is set.
package migrations

import "embed"

// FS holds every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS
