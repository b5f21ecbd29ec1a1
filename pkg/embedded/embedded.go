// Package embedded provides static assets compiled into the binary.
package embedded

import (
	"embed"
)

// Files contains the SQL schema files applied by database.Migrate:
//   - schemas/history_schema.sql - cached price history and symbol names
//
//go:embed schemas
var Files embed.FS
