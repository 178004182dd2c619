//go:build !windows

package store

import (
	"io/fs"

	"github.com/google/renameio"
)

// writeAtomic replaces path through a synced temporary sibling so readers
// never observe a partial document.
func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	return renameio.WriteFile(path, data, mode)
}
