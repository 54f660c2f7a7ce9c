// Package templates embeds the HTML templates and static assets of the site.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed *.html pages/*.html partials/*.html
var FS embed.FS

//go:embed static
var static embed.FS

// Static returns the stylesheet and scripts served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
