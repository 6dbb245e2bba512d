package server

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// listen removes a stale socket file, creates the Unix socket at path and
// restricts it to its owner.
func listen(path string) (net.Listener, error) {
	if path == "" {
		return nil, fmt.Errorf("error: empty socket path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error: creating socket directory: %w", err)
	}
	_ = os.Remove(path)
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("error listening on %s: %w", path, err)
	}
	setSocketPermissions(path)
	return l, nil
}

func setSocketPermissions(path string) {
	_ = os.Chmod(path, 0o700)
}

// cleanupSocket removes the Unix socket file. A missing file is not an
// error.
func cleanupSocket(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
