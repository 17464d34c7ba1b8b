// Package output writes rendered headers to disk without ever exposing a partial file.
package output

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ks89/esp32-configurator/internal/renderer"
)

// FileMode is the permission of written headers.
const FileMode os.FileMode = 0o644

// WriteFile atomically writes h to dir/name and returns the final path. An empty
// name means renderer.HeaderFileName. dir must exist. The header is written to a
// temporary file in dir, synced and renamed over the target.
func WriteFile(dir, name string, h renderer.Header) (string, error) {
	if name == "" {
		name = renderer.HeaderFileName
	}
	if filepath.Base(name) != name {
		return "", errors.Errorf("header file name %q must not contain a directory", name)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.Wrapf(err, "destination %s", dir)
	}
	if !info.IsDir() {
		return "", errors.Errorf("destination %s is not a directory", dir)
	}

	target := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary header file")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(h.Bytes()); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(err, "failed to write %s", tmpName)
	}
	if err := tmp.Chmod(FileMode); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(err, "failed to chmod %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(err, "failed to sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close %s", tmpName)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", errors.Wrapf(err, "failed to move header into %s", target)
	}
	committed = true
	return target, nil
}
