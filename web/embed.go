// Package web provides the embedded UI page for the promptdeck server.
package web

import (
	"embed"
)

//go:embed static
var staticFS embed.FS

// IndexHTML returns the single-page UI.
func IndexHTML() ([]byte, error) {
	return staticFS.ReadFile("static/index.html")
}
