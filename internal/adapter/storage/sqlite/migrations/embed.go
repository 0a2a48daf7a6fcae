// Package migrations holds the embedded SQLite schema migrations.
package migrations

import "embed"

// FS contains the embedded migrations, applied once each in filename order.
//
//go:embed *.sql
var FS embed.FS
