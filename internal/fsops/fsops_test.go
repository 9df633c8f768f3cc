package fsops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// TestTreeSize verifies nested regular file sizes are summed
func TestTreeSize(t *testing.T) {
	tmpDir := t.TempDir()

	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "top.txt"), make([]byte, 100), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.bin"), make([]byte, 250), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if got := TreeSize(tmpDir); got != 350 {
		t.Errorf("TreeSize(dir) = %d, expected 350", got)
	}
	if got := TreeSize(filepath.Join(tmpDir, "top.txt")); got != 100 {
		t.Errorf("TreeSize(file) = %d, expected 100", got)
	}
	if got := TreeSize(filepath.Join(tmpDir, "missing")); got != 0 {
		t.Errorf("TreeSize(missing) = %d, expected 0", got)
	}
}

// TestOSDeleterRemovesTree verifies the real deleter removes directories recursively
func TestOSDeleterRemovesTree(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "upload")
	if err := os.MkdirAll(filepath.Join(target, "inner"), 0o755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(target, "inner", "f"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	var d Deleter = OSDeleter{}
	info, err := d.Lstat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("Lstat(%s) = %v, %v; expected directory", target, info, err)
	}
	if err := d.RemoveAll(target); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if _, err := d.Stat(target); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected target to be gone, Stat err = %v", err)
	}
}

// TestFakeDeleter verifies the fake records calls and resolves links
func TestFakeDeleter(t *testing.T) {
	f := &FakeDeleter{
		Entries: map[string]os.FileInfo{
			"/data/file": File("file", 10),
			"/data/dir":  Dir("dir"),
		},
		Links: map[string]string{"/data/link": "/data/dir"},
		Errs:  map[string]error{"/data/dir": fs.ErrPermission},
	}

	if info, err := f.Lstat("/data/link"); err != nil || info.Mode()&fs.ModeSymlink == 0 {
		t.Errorf("Lstat(link) = %v, %v; expected symlink", info, err)
	}
	if info, err := f.Stat("/data/link"); err != nil || !info.IsDir() {
		t.Errorf("Stat(link) = %v, %v; expected directory", info, err)
	}
	if _, err := f.Stat("/data/none"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(none) err = %v, expected not-exist", err)
	}

	if err := f.Remove("/data/file"); err != nil {
		t.Errorf("Remove(file) failed: %v", err)
	}
	if err := f.RemoveAll("/data/dir"); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("RemoveAll(dir) err = %v, expected permission error", err)
	}

	expected := []string{"rm:/data/file", "rmall:/data/dir"}
	if len(f.Calls) != len(expected) {
		t.Fatalf("Expected %d calls, got %d: %v", len(expected), len(f.Calls), f.Calls)
	}
	for i, c := range expected {
		if f.Calls[i] != c {
			t.Errorf("Call[%d]: expected %s, got %s", i, c, f.Calls[i])
		}
	}
	if _, err := f.Stat("/data/file"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Removed file still reported by Stat: %v", err)
	}
	if _, err := f.Stat("/data/dir"); err != nil {
		t.Errorf("Failed removal should leave the entry, got %v", err)
	}
}
