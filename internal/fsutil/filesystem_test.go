package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fsys.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestCreateAll_OSFileSystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train", "data.csv")

	w, err := CreateAll(OSFileSystem{}, path)
	if err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}
	if _, err := io.WriteString(w, "ug,gr,ri,iz,feh\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "ug,gr,ri,iz,feh\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryFileSystem_AddAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("segue.csv", []byte("1,2,3,4,5\n"))

	f, err := mfs.Open("segue.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "1,2,3,4,5\n" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 10 {
		t.Errorf("expected size 10, got %d", info.Size())
	}
}

func TestMemoryFileSystem_OpenMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Open("missing.csv")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_CreateRequiresParent(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Create("valid/data.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist without parent dir, got %v", err)
	}

	w, err := CreateAll(mfs, "valid/data.csv")
	if err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}

	// Not visible until closed.
	if _, ok := mfs.Contents("valid/data.csv"); ok {
		t.Error("file should not be visible before Close")
	}

	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, ok := mfs.Contents("valid/data.csv")
	if !ok || string(data) != "abc" {
		t.Errorf("expected abc, got %q (ok=%v)", data, ok)
	}
	if !mfs.Exists("valid") {
		t.Error("expected parent directory to exist")
	}
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.MkdirAll("a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	mfs.AddFile("a/b/c/x.csv", []byte("12345"))

	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		info, err := mfs.Stat(dir)
		if err != nil {
			t.Fatalf("Stat(%s) failed: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}

	info, err := mfs.Stat("a/b/c/x.csv")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.IsDir() || info.Size() != 5 || info.Name() != "x.csv" {
		t.Errorf("unexpected file info: dir=%v size=%d name=%s", info.IsDir(), info.Size(), info.Name())
	}

	if _, err := mfs.Stat("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("b.csv", nil)
	mfs.AddFile("a.csv", nil)

	got := mfs.Files()
	if len(got) != 2 || got[0] != "a.csv" || got[1] != "b.csv" {
		t.Errorf("unexpected file list %v", got)
	}
}
