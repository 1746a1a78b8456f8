package namespace

import (
	"testing"

	"distfs/internal/gfs"
)

func namesEqual(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	seen := make(map[string]bool, len(got))
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range want {
		if !seen[w] {
			t.Fatalf("got %v, missing %q", got, w)
		}
	}
}

// S1: mkdir cascade.
func TestMkdirCascade(t *testing.T) {
	tr := New(nil)
	if err := tr.Mkdir("/path/to/new/directory"); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path string
		want []string
	}{
		{"/path", []string{"to"}},
		{"/path/to", []string{"new"}},
		{"/path/to/new", []string{"directory"}},
		{"/path/to/new/directory", nil},
	}
	for _, c := range cases {
		got, err := tr.Ls(c.path)
		if err != nil {
			t.Fatalf("ls(%s): %v", c.path, err)
		}
		namesEqual(t, got, c.want...)
	}
}

// S2: create under missing dirs.
func TestCreateFileUnderMissingDirs(t *testing.T) {
	tr := New(nil)
	if err := tr.Mkdir("/path/to"); err != nil {
		t.Fatal(err)
	}
	if err := tr.CreateFile("/path/to/new/directory/new_file"); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Ls("/path/to/new/directory")
	if err != nil {
		t.Fatal(err)
	}
	namesEqual(t, got, "new_file")
}

// S3: delete hides but retains the node.
func TestDeleteHidesFile(t *testing.T) {
	tr := New(nil)
	if err := tr.CreateFile("/dir/f"); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeleteFile("/dir/f"); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Ls("/dir")
	if err != nil {
		t.Fatal(err)
	}
	namesEqual(t, got)

	active, err := tr.IsActive("/dir/f")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Fatal("expected deleted file to be inactive")
	}
}

func TestMkdirIdempotent(t *testing.T) {
	tr := New(nil)
	if err := tr.Mkdir("/a/b"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Mkdir("/a/b"); err != nil {
		t.Fatalf("mkdir should be idempotent: %v", err)
	}
}

func TestMkdirOnFileFails(t *testing.T) {
	tr := New(nil)
	if err := tr.CreateFile("/a"); err != nil {
		t.Fatal(err)
	}
	err := tr.Mkdir("/a/b")
	if !gfs.Is(err, gfs.KindPathIsFile) {
		t.Fatalf("expected PathIsFile, got %v", err)
	}
}

func TestCreateFileExistsActive(t *testing.T) {
	tr := New(nil)
	if err := tr.CreateFile("/a"); err != nil {
		t.Fatal(err)
	}
	err := tr.CreateFile("/a")
	if !gfs.Is(err, gfs.KindExists) {
		t.Fatalf("expected Exists, got %v", err)
	}
}

func TestCreateFileResurrectsDeleted(t *testing.T) {
	tr := New(nil)
	if err := tr.CreateFile("/a"); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeleteFile("/a"); err != nil {
		t.Fatal(err)
	}
	if err := tr.CreateFile("/a"); err != nil {
		t.Fatalf("recreate after delete should succeed: %v", err)
	}
	active, err := tr.IsActive("/a")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Fatal("expected resurrected file to be Active")
	}
}

func TestDeleteFileNotFound(t *testing.T) {
	tr := New(nil)
	err := tr.DeleteFile("/missing")
	if !gfs.Is(err, gfs.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeleteFileIsDirectory(t *testing.T) {
	tr := New(nil)
	if err := tr.Mkdir("/dir"); err != nil {
		t.Fatal(err)
	}
	err := tr.DeleteFile("/dir")
	if !gfs.Is(err, gfs.KindIsDirectory) {
		t.Fatalf("expected IsDirectory, got %v", err)
	}
}

func TestLsOnFileFails(t *testing.T) {
	tr := New(nil)
	if err := tr.CreateFile("/a"); err != nil {
		t.Fatal(err)
	}
	_, err := tr.Ls("/a")
	if !gfs.Is(err, gfs.KindNotDirectory) {
		t.Fatalf("expected NotDirectory, got %v", err)
	}
}

func TestLsMissingDirErrors(t *testing.T) {
	tr := New(nil)
	_, err := tr.Ls("/nope")
	if !gfs.Is(err, gfs.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestEmptyPathComponentsRejected(t *testing.T) {
	tr := New(nil)
	if err := tr.Mkdir("/a//b"); !gfs.Is(err, gfs.KindInvalidPath) {
		t.Fatalf("expected InvalidPath, got %v", err)
	}
	if _, err := tr.Ls("path/without/leading/slash"); !gfs.Is(err, gfs.KindInvalidPath) {
		t.Fatalf("expected InvalidPath, got %v", err)
	}
}

func TestIsActiveOnDirectory(t *testing.T) {
	tr := New(nil)
	if err := tr.Mkdir("/dir"); err != nil {
		t.Fatal(err)
	}
	active, err := tr.IsActive("/dir")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Fatal("directory should never be active")
	}
}

func TestLsRoot(t *testing.T) {
	tr := New(nil)
	if err := tr.Mkdir("/a"); err != nil {
		t.Fatal(err)
	}
	if err := tr.CreateFile("/b"); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Ls("/")
	if err != nil {
		t.Fatal(err)
	}
	namesEqual(t, got, "a", "b")
}
