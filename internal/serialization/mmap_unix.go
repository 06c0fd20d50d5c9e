//go:build unix

package serialization

import (
	"os"
	"syscall"
)

// mmapFile maps a checkpoint read-only for ReadFile. Parse copies every
// tensor out of the mapping, so it can be released right after.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	return syscall.Mmap(
		int(f.Fd()), //nolint:gosec // G115: file descriptor fits in int
		0,
		int(size), //nolint:gosec // G115: ReadFile checked the size
		syscall.PROT_READ,
		syscall.MAP_PRIVATE,
	)
}

// munmapFile releases a mapping made by mmapFile.
func munmapFile(data []byte) error {
	return syscall.Munmap(data)
}
