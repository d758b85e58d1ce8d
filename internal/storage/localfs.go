package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fsDetector names the filesystem holding path. ok is false when the
// platform cannot tell.
type fsDetector func(path string) (name string, ok bool, err error)

var remoteFilesystems = []string{"afpfs", "cifs", "nfs", "smbfs", "smb2", "webdav"}

// ErrRemoteFilesystem is returned when the state database would live on a
// network mount, where SQLite's locking cannot be trusted.
var ErrRemoteFilesystem = errors.New("state database is on a network filesystem")

func requireLocalFS(path string, detect fsDetector) error {
	dir, err := existingAncestor(path)
	if err != nil {
		return err
	}
	name, ok, err := detect(dir)
	if err != nil {
		return fmt.Errorf("detect filesystem of %s: %w", dir, err)
	}
	if !ok {
		return nil
	}
	for _, remote := range remoteFilesystems {
		if strings.EqualFold(strings.TrimSpace(name), remote) {
			return fmt.Errorf("%w: %s is on %s; point state.path at local disk", ErrRemoteFilesystem, path, name)
		}
	}
	return nil
}

// existingAncestor walks up from path until something exists, since the
// database file and its directory may not have been created yet.
func existingAncestor(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	for {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("no existing directory above %s", path)
		}
		p = parent
	}
}
