// Package migrations embeds the versioned SQL schema migrations so the
// server binary carries its own schema.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
