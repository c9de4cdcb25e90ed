// Package migrations embeds the SQL migrations so binaries can run them
// without shipping the directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
