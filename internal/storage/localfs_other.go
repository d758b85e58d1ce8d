//go:build !darwin && !linux

package storage

func detectFilesystem(string) (string, bool, error) {
	return "", false, nil
}
