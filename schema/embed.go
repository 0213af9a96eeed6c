// Package schema provides the embedded JSON schema for crucible config files.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
