package cli

import (
	"os"

	"github.com/roach88/samwire/internal/manifest"
)

// loadManifest loads a manifest file, or a CUE package when path is a
// directory. An empty path means no manifest.
func loadManifest(path string) (*manifest.Manifest, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "manifest not found", err)
	}
	var m *manifest.Manifest
	if info.IsDir() {
		m, err = manifest.LoadDir(path)
	} else {
		m, err = manifest.LoadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid manifest", err)
	}
	return m, nil
}
