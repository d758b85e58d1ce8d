//go:build linux

package storage

import "syscall"

var linuxRemoteMagic = map[int64]string{
	0x6969:     "nfs",
	0xFF534D42: "cifs",
	0x517B:     "smbfs",
	0xFE534D42: "smb2",
}

func detectFilesystem(path string) (string, bool, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return "", false, err
	}
	if name, ok := linuxRemoteMagic[int64(st.Type)]; ok {
		return name, true, nil
	}
	return "local", true, nil
}
