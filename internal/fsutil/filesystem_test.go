package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

// Compile-time interface checks.
var (
	_ FileSystem = OSFileSystem{}
	_ FileSystem = (*MemoryFileSystem)(nil)
)

func TestOSFileSystem_ReadFile(t *testing.T) {
	fsys := OSFileSystem{}

	data, err := fsys.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestOSFileSystem_CreateAndOpen(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "charts")

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	path := filepath.Join(dir, "out.html")
	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("<html></html>")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "<html></html>" {
		t.Errorf("got %q", got)
	}

	info, err := fsys.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len("<html></html>")) {
		t.Errorf("size = %d", info.Size())
	}
}

func TestMemoryFileSystem_WriteAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/data/school_data.csv", []byte("STATE,TOTALREV\nIowa,5\n"))

	r, err := mfs.Open("/data/school_data.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	_ = r.Close()

	if string(data) != "STATE,TOTALREV\nIowa,5\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/chart.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, _ = w.Write([]byte("png"))

	if data, _ := mfs.ReadFile("/out/chart.png"); len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := mfs.ReadFile("/out/chart.png")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("expected 'png', got %q", data)
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("/missing.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.ReadFile("/missing.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.Stat("/missing.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat: expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_MkdirAllAndFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/a/b/c", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
		info, err := mfs.Stat(dir)
		if err != nil {
			t.Fatalf("Stat(%s) failed: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s should be a directory", dir)
		}
	}

	mfs.WriteFile("/a/b/two.txt", nil)
	mfs.WriteFile("/a/one.txt", nil)
	mfs.WriteFile("/other.txt", nil)

	got := mfs.Files("/a")
	if len(got) != 2 || got[0] != "/a/b/two.txt" || got[1] != "/a/one.txt" {
		t.Errorf("Files(/a) = %v", got)
	}
}
