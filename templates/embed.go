// Package templates holds the embedded HTML pages served by the web
// handlers.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
