// Package schemas embeds the JSON Schema documents (draft 2020-12) that
// gate every tool payload before any database write.
package schemas

import "embed"

//go:embed *.json
var FS embed.FS
