package fsops

import (
	"io/fs"
	"os"
	"path"
	"time"
)

// FakeDeleter implements Deleter for testing
// Records all delete calls without performing actual deletions
type FakeDeleter struct {
	Calls []string

	// Entries maps a path to the info Stat/Lstat return for it.
	// Missing paths report fs.ErrNotExist.
	Entries map[string]os.FileInfo

	// Links maps a symlink path to the path it points at.
	Links map[string]string

	// Errs forces Remove/RemoveAll on a path to fail.
	Errs map[string]error

	// OnRemove runs before a remove is recorded, e.g. to panic in tests.
	OnRemove func(path string)
}

func (f *FakeDeleter) Stat(p string) (os.FileInfo, error) {
	if target, ok := f.Links[p]; ok {
		return f.Stat(target)
	}
	return f.Lstat(p)
}

func (f *FakeDeleter) Lstat(p string) (os.FileInfo, error) {
	if _, ok := f.Links[p]; ok {
		return FakeInfo{FileName: path.Base(p), FileMode: fs.ModeSymlink | 0o777}, nil
	}
	if info, ok := f.Entries[p]; ok {
		return info, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

func (f *FakeDeleter) Remove(p string) error {
	return f.record("rm:", p)
}

func (f *FakeDeleter) RemoveAll(p string) error {
	return f.record("rmall:", p)
}

func (f *FakeDeleter) record(op, p string) error {
	if f.OnRemove != nil {
		f.OnRemove(p)
	}
	f.Calls = append(f.Calls, op+p)
	if err, ok := f.Errs[p]; ok {
		return err
	}
	delete(f.Entries, p)
	delete(f.Links, p)
	return nil
}

// FakeInfo is a minimal os.FileInfo for FakeDeleter entries
type FakeInfo struct {
	FileName string
	FileSize int64
	FileMode fs.FileMode
}

func (i FakeInfo) Name() string       { return i.FileName }
func (i FakeInfo) Size() int64        { return i.FileSize }
func (i FakeInfo) Mode() fs.FileMode  { return i.FileMode }
func (i FakeInfo) ModTime() time.Time { return time.Time{} }
func (i FakeInfo) IsDir() bool        { return i.FileMode.IsDir() }
func (i FakeInfo) Sys() any           { return nil }

// File returns a FakeInfo for a regular file of the given size
func File(name string, size int64) FakeInfo {
	return FakeInfo{FileName: name, FileSize: size, FileMode: 0o644}
}

// Dir returns a FakeInfo for a directory
func Dir(name string) FakeInfo {
	return FakeInfo{FileName: name, FileMode: fs.ModeDir | 0o755}
}
