// Package migrations embeds the SQL schema history applied by goose at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
