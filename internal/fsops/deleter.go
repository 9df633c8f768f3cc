package fsops

import "os"

// Deleter abstracts the filesystem calls made around a delete
// Enables tests to prove which paths were removed without touching disk
type Deleter interface {
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
	Remove(path string) error
	RemoveAll(path string) error
}
