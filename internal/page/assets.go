package page

import (
	"embed"
	"io/fs"
)

//go:embed assets/*
var assetFS embed.FS

//go:embed templates/*.html
var templateFS embed.FS

// Assets returns the static files every site ships: stylesheet, icons and
// the live-reload client. Paths are relative to the assets directory.
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
