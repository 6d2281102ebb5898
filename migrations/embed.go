// Package migrations embeds the voice profile schema. The server applies the
// up migrations on startup and the integration fixtures reuse them.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
