package fsops

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSDeleter implements Deleter using real os package calls
type OSDeleter struct{}

func (OSDeleter) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (OSDeleter) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

func (OSDeleter) Remove(path string) error {
	return os.Remove(path)
}

func (OSDeleter) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// TreeSize returns the total size of regular files at or under path.
// Unreadable entries are skipped; symlinks are not followed.
func TreeSize(path string) int64 {
	var total int64
	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
