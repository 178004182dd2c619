package metadata

import (
	"embed"
	"io/fs"
	"runtime"
)

//go:embed defaults/*.json
var embeddedDefaults embed.FS

const (
	baseFormFile     = "config.form.json"
	overlayFormFile  = "config.form.darwin.json"
	settingsFileName = "settings.default.json"
)

// DefaultRoots lists the top-level settings keys in rendering order.
var DefaultRoots = []string{"settings", "engine", "modelToggles"}

// DefaultsFS returns the bundled metadata and settings documents.
func DefaultsFS() fs.FS {
	sub, err := fs.Sub(embeddedDefaults, "defaults")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}

// Defaults loads the bundled form metadata for the running platform.
func Defaults() (*Catalog, error) {
	return DefaultsFor(runtime.GOOS)
}

// DefaultsFor loads the bundled form metadata for goos. Engines that only
// ship for Windows are hidden on darwin and linux.
func DefaultsFor(goos string) (*Catalog, error) {
	names := []string{baseFormFile}
	if goos == "darwin" || goos == "linux" {
		names = append(names, overlayFormFile)
	}
	return LoadFiles(DefaultsFS(), names...)
}

// DefaultSettings returns a copy of the bundled default settings document.
func DefaultSettings() []byte {
	data, err := fs.ReadFile(DefaultsFS(), settingsFileName)
	if err != nil {
		panic(err)
	}
	return data
}
