package qr

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStudent(t *testing.T) {
	t.Parallel()

	g := New(filepath.Join(t.TempDir(), "qrcodes"))
	name, err := g.Student("STU1001")
	if err != nil {
		t.Fatalf("Student: %v", err)
	}
	if name != "student_STU1001.png" {
		t.Errorf("got name %q, want student_STU1001.png", name)
	}
	info, err := os.Stat(filepath.Join(g.Dir, name))
	if err != nil {
		t.Fatalf("stat generated PNG: %v", err)
	}
	if info.Size() == 0 {
		t.Error("generated PNG is empty")
	}
}

func TestBook(t *testing.T) {
	t.Parallel()

	g := New(t.TempDir())
	name, err := g.Book("BK0001")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if name != "book_BK0001.png" {
		t.Errorf("got name %q, want book_BK0001.png", name)
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	g := New(t.TempDir())
	if g.Exists("student_STU1001.png") {
		t.Error("Exists reported a PNG that was never generated")
	}
	name, err := g.Student("STU1001")
	if err != nil {
		t.Fatalf("Student: %v", err)
	}
	if !g.Exists(name) {
		t.Error("Exists missed a freshly generated PNG")
	}
}
