package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func fixedFS(name string) fsDetector {
	return func(string) (string, bool, error) { return name, true, nil }
}

func TestRequireLocalFS(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "fumo.db")
	tests := []struct {
		name    string
		detect  fsDetector
		wantErr bool
	}{
		{name: "local", detect: fixedFS("ext4")},
		{name: "nfs", detect: fixedFS("nfs"), wantErr: true},
		{name: "smb uppercase", detect: fixedFS("SMBFS"), wantErr: true},
		{name: "unknown platform", detect: func(string) (string, bool, error) { return "", false, nil }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := requireLocalFS(dbPath, tt.detect)
			if tt.wantErr != errors.Is(err, ErrRemoteFilesystem) {
				t.Fatalf("requireLocalFS error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireLocalFSInspectsNearestExistingDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var inspected string
	err := requireLocalFS(filepath.Join(root, "a", "b", "fumo.db"), func(p string) (string, bool, error) {
		inspected = p
		return "ext4", true, nil
	})
	if err != nil {
		t.Fatalf("requireLocalFS: %v", err)
	}
	if inspected != root {
		t.Fatalf("inspected %q, want %q", inspected, root)
	}
}

func TestDetectFilesystemOnTempDir(t *testing.T) {
	t.Parallel()

	if err := requireLocalFS(filepath.Join(t.TempDir(), "fumo.db"), detectFilesystem); err != nil {
		t.Fatalf("temp dir rejected: %v", err)
	}
}
