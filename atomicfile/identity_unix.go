//go:build unix

package atomicfile

import (
	"io/fs"
	"syscall"
)

// fileIdentity extracts the (device, inode) pair used to detect
// whether a file has been replaced since it was last read.
func fileIdentity(st fs.FileInfo) (dev, ino uint64) {
	sys, ok := st.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0
	}
	return uint64(sys.Dev), uint64(sys.Ino)
}
