// Package qr generates the QR code PNGs that scan pages read back.
package qr

import (
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// Payload tags, matched by the scan pages when decoding.
const (
	StudentPrefix = "STUDENT:"
	BookPrefix    = "BOOK:"
)

const pngSize = 256

// Generator writes QR PNGs into a static directory.
type Generator struct {
	Dir string
}

// New creates a generator rooted at dir.
func New(dir string) *Generator {
	return &Generator{Dir: dir}
}

// Student writes the QR for a student id and returns the file name.
func (g *Generator) Student(sid string) (string, error) {
	name := "student_" + sid + ".png"
	return name, g.write(name, StudentPrefix+sid)
}

// Book writes the QR for a book id and returns the file name.
func (g *Generator) Book(bid string) (string, error) {
	name := "book_" + bid + ".png"
	return name, g.write(name, BookPrefix+bid)
}

// Exists reports whether the named QR PNG is already on disk.
func (g *Generator) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(g.Dir, name))
	return err == nil
}

func (g *Generator) write(name, data string) error {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return err
	}
	return qrcode.WriteFile(data, qrcode.Medium, pngSize, filepath.Join(g.Dir, name))
}
