// Package web embeds the browser UI.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html static
var files embed.FS

// FS returns the UI files: index.html at the root, assets under static/.
func FS() fs.FS {
	return files
}
